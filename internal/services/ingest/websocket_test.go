package ingest

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gardenlab/garden-telemetry/internal/services/resolver"
)

func dialGateway(t *testing.T, p *Pipeline) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(NewGateway(p))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial gateway: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func waitForAppends(t *testing.T, store *stubStore, n int) []appendRec {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := store.appended(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d appended readings, have %d", n, len(store.appended()))
	return nil
}

func TestSessionProcessesMessagesInArrivalOrder(t *testing.T) {
	store := &stubStore{}
	p := newTestPipeline(stubResolver{}, store, &stubNotifier{})
	conn, cleanup := dialGateway(t, p)
	defer cleanup()

	for i := 1; i <= 3; i++ {
		payload := []byte(fmt.Sprintf(`{"sensorId":5,"measurements":{"humidity":%d}}`, i*10))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			t.Fatalf("write message %d: %v", i, err)
		}
	}

	got := waitForAppends(t, store, 3)
	for i, want := range []float64{10, 20, 30} {
		if got[i].measurements["humidity"] != want {
			t.Fatalf("message %d out of order: got %v want %v", i, got[i].measurements["humidity"], want)
		}
	}
}

func TestSessionSurvivesMalformedMessage(t *testing.T) {
	store := &stubStore{}
	p := newTestPipeline(stubResolver{}, store, &stubNotifier{})
	conn, cleanup := dialGateway(t, p)
	defer cleanup()

	frames := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"measurements":{"humidity":10}}`), // missing sensorId
		[]byte(`{"sensorId":5,"measurements":{"humidity":55}}`),
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, f); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got := waitForAppends(t, store, 1)
	if got[0].sensorID != 5 || got[0].measurements["humidity"] != 55 {
		t.Fatalf("valid message after malformed ones should be persisted, got %+v", got[0])
	}
}

func TestConcurrentSessionsDoNotBlockEachOther(t *testing.T) {
	store := &stubStore{}
	notifier := &stubNotifier{}
	p := newTestPipeline(stubResolver{owners: []resolver.Owner{{FlowerpotID: 7}}}, store, notifier)

	connA, cleanupA := dialGateway(t, p)
	defer cleanupA()
	connB, cleanupB := dialGateway(t, p)
	defer cleanupB()

	if err := connA.WriteMessage(websocket.TextMessage, []byte(`{"sensorId":1,"measurements":{"humidity":40}}`)); err != nil {
		t.Fatalf("write on A: %v", err)
	}
	if err := connB.WriteMessage(websocket.TextMessage, []byte(`{"sensorId":2,"measurements":{"humidity":41}}`)); err != nil {
		t.Fatalf("write on B: %v", err)
	}

	got := waitForAppends(t, store, 2)
	seen := map[int64]bool{got[0].sensorID: true, got[1].sensorID: true}
	if !seen[1] || !seen[2] {
		t.Fatalf("both sessions' readings should be persisted, got %v", seen)
	}
}

func TestDisconnectLeavesOtherSessionsRunning(t *testing.T) {
	store := &stubStore{}
	p := newTestPipeline(stubResolver{}, store, &stubNotifier{})

	_, cleanupA := dialGateway(t, p)
	connB, cleanupB := dialGateway(t, p)
	defer cleanupB()

	cleanupA()

	if err := connB.WriteMessage(websocket.TextMessage, []byte(`{"sensorId":3,"measurements":{"humidity":12}}`)); err != nil {
		t.Fatalf("write after peer disconnect: %v", err)
	}
	got := waitForAppends(t, store, 1)
	if got[0].sensorID != 3 {
		t.Fatalf("surviving session's reading should be persisted, got %+v", got[0])
	}
}
