package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gardenlab/garden-telemetry/internal/model/entities"
	"github.com/gardenlab/garden-telemetry/internal/model/messages"
	"github.com/gardenlab/garden-telemetry/internal/services/registry"
)

// ReadingStore is the read path of the time-series store.
type ReadingStore interface {
	QueryBySensor(ctx context.Context, sensorID int64, from, to time.Time) ([]messages.Reading, error)
	QueryAt(ctx context.Context, sensorID int64, ts time.Time) ([]messages.Reading, error)
}

// LatestLister serves the hot “current value per sensor” view.
type LatestLister interface {
	AllLatest(ctx context.Context) ([]messages.Reading, error)
}

// SensorDirectory validates sensor ids against the entity store.
type SensorDirectory interface {
	SensorByID(ctx context.Context, id int64) (entities.Sensor, error)
}

// API is the HTTP read surface over persisted readings. Ingestion does
// not depend on it; it exists for dashboards and point lookups.
type API struct {
	Store   ReadingStore
	Latest  LatestLister
	Sensors SensorDirectory
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/readings/latest", a.handleLatest)
	mux.HandleFunc("/readings", a.handleReadings)
}

// GET /readings/latest — most recent reading of every live sensor,
// served from the cache.
func (a *API) handleLatest(w http.ResponseWriter, r *http.Request) {
	if a.Latest == nil {
		http.Error(w, "latest readings unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := a.Latest.AllLatest(ctx)
	if err != nil {
		http.Error(w, "latest readings unavailable", http.StatusServiceUnavailable)
		return
	}
	if list == nil {
		list = []messages.Reading{}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SensorID < list[j].SensorID })

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Data-Source", "cache")
	_ = json.NewEncoder(w).Encode(list)
}

// GET /readings?sensor_id=<id>[&at=<ts>|&from=<ts>&to=<ts>|&minutes=<n>]
// Timestamps are RFC3339; `at` is the exact-match point lookup, the
// range form defaults to the last 24h.
func (a *API) handleReadings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sensorID, err := strconv.ParseInt(q.Get("sensor_id"), 10, 64)
	if err != nil || sensorID <= 0 {
		http.Error(w, "missing or invalid sensor_id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := a.Sensors.SensorByID(ctx, sensorID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			http.Error(w, "unknown sensor", http.StatusNotFound)
			return
		}
		http.Error(w, "sensor lookup failed", http.StatusServiceUnavailable)
		return
	}

	var list []messages.Reading
	if at := q.Get("at"); at != "" {
		ts, perr := time.Parse(time.RFC3339, at)
		if perr != nil {
			http.Error(w, "invalid at timestamp", http.StatusBadRequest)
			return
		}
		list, err = a.Store.QueryAt(ctx, sensorID, ts)
	} else {
		from, to, perr := parseRange(q)
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		list, err = a.Store.QueryBySensor(ctx, sensorID, from, to)
	}
	if err != nil {
		http.Error(w, "readings query failed", http.StatusServiceUnavailable)
		return
	}
	if list == nil {
		list = []messages.Reading{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func parseRange(q map[string][]string) (from, to time.Time, err error) {
	get := func(k string) string {
		if v, ok := q[k]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if f := get("from"); f != "" {
		from, err = time.Parse(time.RFC3339, f)
		if err != nil {
			return from, to, errors.New("invalid from timestamp")
		}
		if t := get("to"); t != "" {
			to, err = time.Parse(time.RFC3339, t)
			if err != nil {
				return from, to, errors.New("invalid to timestamp")
			}
		}
		return from, to, nil
	}

	minutes := 60 * 24
	if m := get("minutes"); m != "" {
		n, perr := strconv.Atoi(m)
		if perr != nil || n <= 0 {
			return from, to, errors.New("invalid minutes")
		}
		minutes = n
	}
	return time.Now().Add(-time.Duration(minutes) * time.Minute), time.Time{}, nil
}
