package timeseries

import (
	"context"
	"errors"
	"time"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

// ErrUnavailable reports that the backing store rejected a write or
// query. Callers treat it as recoverable: the gateway logs, drops the
// reading and keeps the session alive.
var ErrUnavailable = errors.New("timeseries: store unavailable")

// Store is the append-only reading log. There is no update or upsert:
// every inbound message appends exactly one record.
type Store interface {
	// Append persists one reading and returns the assigned record id.
	Append(ctx context.Context, sensorID int64, measurements map[string]float64, ts time.Time) (string, error)

	// QueryBySensor returns the readings of one sensor inside
	// [from, to); a zero `to` means now.
	QueryBySensor(ctx context.Context, sensorID int64, from, to time.Time) ([]messages.Reading, error)

	// QueryAt is the point lookup: readings of one sensor at exactly ts.
	QueryAt(ctx context.Context, sensorID int64, ts time.Time) ([]messages.Reading, error)
}
