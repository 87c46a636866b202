package broadcast

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/gardenlab/garden-telemetry/internal/model/entities"
	"github.com/gardenlab/garden-telemetry/internal/services/registry"
)

var subscriberUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PotDirectory checks that a flowerpot exists before a subscriber is
// attached to its topic. Optional; nil skips the check.
type PotDirectory interface {
	FlowerpotByID(ctx context.Context, id int64) (entities.Flowerpot, error)
}

// SubscribeHandler upgrades `GET /ws/actuation?flowerpotId=<id>` to a
// websocket and pumps the pot's actuation events to the client until
// either side goes away.
type SubscribeHandler struct {
	Registry *Registry
	Pots     PotDirectory
}

func (h *SubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	potID, err := strconv.ParseInt(r.URL.Query().Get("flowerpotId"), 10, 64)
	if err != nil || potID <= 0 {
		http.Error(w, "missing or invalid flowerpotId", http.StatusBadRequest)
		return
	}
	if h.Pots != nil {
		if _, err := h.Pots.FlowerpotByID(r.Context(), potID); err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				http.Error(w, "unknown flowerpot", http.StatusNotFound)
				return
			}
			http.Error(w, "flowerpot lookup failed", http.StatusServiceUnavailable)
			return
		}
	}

	conn, err := subscriberUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.Registry.Subscribe(potID, DefaultBuffer)
	defer sub.Close()

	// Read side only detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				log.Printf("broadcast: subscriber write for pot %d: %v", potID, err)
				return
			}
		}
	}
}
