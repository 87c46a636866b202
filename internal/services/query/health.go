package query

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Pinger is the liveness check a backing store exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	mqtt  mqtt.Client
	db    Pinger
	cache Pinger
}

func NewHealthHandler(m mqtt.Client, db, cache Pinger) http.Handler {
	return &healthHandler{mqtt: m, db: db, cache: cache}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Status        string `json:"status"`
		MQTTConnected bool   `json:"mqtt_connected"`
		DatabaseOK    bool   `json:"database_ok"`
		CacheOK       bool   `json:"cache_ok"`
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	st := status{
		MQTTConnected: h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		DatabaseOK:    ping(ctx, h.db),
		CacheOK:       ping(ctx, h.cache),
	}

	switch {
	case st.DatabaseOK && st.CacheOK && st.MQTTConnected:
		st.Status = "ok"
	case st.DatabaseOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler for /readyz: 200 only while the entity store answers.
type readyHandler struct {
	db Pinger
}

func NewReadyHandler(db Pinger) http.Handler {
	return &readyHandler{db: db}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := ping(ctx, h.db)
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}

func ping(ctx context.Context, p Pinger) bool {
	return p != nil && p.Ping(ctx) == nil
}
