package broadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

func TestSubscribeHandlerDeliversPotEvents(t *testing.T) {
	registry := NewRegistry()
	server := httptest.NewServer(&SubscribeHandler{Registry: registry})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?flowerpotId=7"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The handler subscribes after the upgrade; publish until it lands.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if delivered, _ := registry.Publish(event(7)); delivered > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt messages.ActuationEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.FlowerpotID != 7 || evt.Command != messages.CommandStartWaterPump {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestSubscribeHandlerRejectsMissingPotID(t *testing.T) {
	server := httptest.NewServer(&SubscribeHandler{Registry: NewRegistry()})
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without flowerpotId, got %d", resp.StatusCode)
	}
}
