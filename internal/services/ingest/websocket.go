package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
	"github.com/gardenlab/garden-telemetry/internal/observability/metrics"
)

var measureUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway is the real-time ingestion endpoint. Each connected device
// gets its own session goroutine; messages within one session are
// processed strictly in arrival order, sessions never block each other.
type Gateway struct {
	pipeline *Pipeline
}

func NewGateway(pipeline *Pipeline) *Gateway {
	return &Gateway{pipeline: pipeline}
}

// ServeHTTP upgrades `GET /ws/measure` and runs the session loop. A
// device that disconnects simply opens a new session later; there is
// no resume protocol.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := measureUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	g.serve(r.Context(), conn)
}

func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn) {
	// Cancelling here stops only this session's in-flight store work.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	log.Printf("ingest: session open from %s", remote)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ingest: session %s read: %v", remote, err)
			}
			return
		}

		var msg messages.ReadingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Bad frame, not a bad session.
			log.Printf("ingest: session %s: undecodable message: %v", remote, err)
			metrics.ObserveMalformed()
			continue
		}

		if err := g.pipeline.Process(ctx, "websocket", msg); err != nil {
			if errors.Is(err, ErrMalformedMessage) {
				log.Printf("ingest: session %s: %v", remote, err)
				continue
			}
			log.Printf("ingest: session %s: process: %v", remote, err)
		}
	}
}
