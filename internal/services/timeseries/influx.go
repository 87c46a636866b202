package timeseries

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

// readingMeasurement is the single Influx measurement holding every
// sensor reading; sensors are told apart by tag.
const readingMeasurement = "sensor_reading"

// InfluxConfig configures the reading store.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxStore is the InfluxDB-backed Store. Writes are blocking so the
// gateway learns about a failed append immediately and can drop the
// reading instead of silently losing it later.
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

func NewInfluxStore(cfg InfluxConfig) (*InfluxStore, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("timeseries: influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
	}, nil
}

func (s *InfluxStore) Close() {
	s.client.Close()
}

// Append writes one reading. Each named numeric field of the bag
// becomes an Influx field; the record id is assigned here.
func (s *InfluxStore) Append(ctx context.Context, sensorID int64, measurements map[string]float64, ts time.Time) (string, error) {
	recordID := uuid.NewString()

	tags := map[string]string{
		"sensor_id": strconv.FormatInt(sensorID, 10),
		"record_id": recordID,
	}
	fields := make(map[string]interface{}, len(measurements))
	for k, v := range measurements {
		fields[k] = v
	}

	point := influxdb2.NewPoint(readingMeasurement, tags, fields, ts)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return "", fmt.Errorf("%w: write point: %v", ErrUnavailable, err)
	}
	return recordID, nil
}

func (s *InfluxStore) QueryBySensor(ctx context.Context, sensorID int64, from, to time.Time) ([]messages.Reading, error) {
	res, err := s.queryAPI.Query(ctx, buildReadingsFlux(s.bucket, sensorID, from, to))
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrUnavailable, err)
	}
	defer func() { _ = res.Close() }()

	var out []messages.Reading
	for res.Next() {
		rec := res.Record()
		reading := messages.Reading{
			SensorID:     sensorID,
			Measurements: map[string]float64{},
			Timestamp:    rec.Time().UTC(),
		}
		for key, val := range rec.Values() {
			switch key {
			case "result", "table", "_start", "_stop", "_time", "_measurement", "sensor_id":
				continue
			case "record_id":
				if id, ok := val.(string); ok {
					reading.ID = id
				}
				continue
			}
			switch v := val.(type) {
			case float64:
				reading.Measurements[key] = v
			case int64:
				reading.Measurements[key] = float64(v)
			}
		}
		out = append(out, reading)
	}
	if res.Err() != nil {
		return nil, fmt.Errorf("%w: iterate: %v", ErrUnavailable, res.Err())
	}
	return out, nil
}

// QueryAt narrows the range to a single instant; Flux range stops are
// exclusive, so one nanosecond past ts captures exactly ts.
func (s *InfluxStore) QueryAt(ctx context.Context, sensorID int64, ts time.Time) ([]messages.Reading, error) {
	return s.QueryBySensor(ctx, sensorID, ts, ts.Add(time.Nanosecond))
}

// buildReadingsFlux pivots the per-field rows of one sensor back into
// whole readings, ordered by time. A zero `to` means "up to now".
func buildReadingsFlux(bucket string, sensorID int64, from, to time.Time) string {
	stop := "now()"
	if !to.IsZero() {
		stop = to.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r.sensor_id == %q)
  |> pivot(rowKey: ["_time", "record_id"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"])
`, bucket, from.UTC().Format(time.RFC3339Nano), stop, readingMeasurement, strconv.FormatInt(sensorID, 10))
}
