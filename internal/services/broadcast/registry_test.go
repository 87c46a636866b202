package broadcast

import (
	"testing"
	"time"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

func event(potID int64) messages.ActuationEvent {
	return messages.ActuationEvent{
		FlowerpotID: potID,
		SensorID:    5,
		Command:     messages.CommandStartWaterPump,
		Timestamp:   time.Now().UTC(),
	}
}

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe(7, 1)
	defer sub.Close()

	delivered, dropped := r.Publish(event(7))
	if delivered != 1 || dropped != 0 {
		t.Fatalf("delivered=%d dropped=%d, want 1/0", delivered, dropped)
	}

	select {
	case evt := <-sub.Events():
		if evt.FlowerpotID != 7 || evt.Command != messages.CommandStartWaterPump {
			t.Fatalf("unexpected event: %+v", evt)
		}
	default:
		t.Fatalf("event not buffered for subscriber")
	}
}

func TestPublishOtherTopicNotDelivered(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe(7, 1)
	defer sub.Close()

	if delivered, _ := r.Publish(event(8)); delivered != 0 {
		t.Fatalf("pot 8 event must not reach pot 7 subscriber")
	}
}

func TestPublishWithoutSubscribersDropsSilently(t *testing.T) {
	r := NewRegistry()
	delivered, dropped := r.Publish(event(7))
	if delivered != 0 || dropped != 0 {
		t.Fatalf("delivered=%d dropped=%d, want 0/0", delivered, dropped)
	}
}

func TestPublishNeverBlocksOnFullBuffer(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe(7, 1)
	defer sub.Close()

	if delivered, _ := r.Publish(event(7)); delivered != 1 {
		t.Fatalf("first publish should fill the buffer")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if delivered, dropped := r.Publish(event(7)); delivered != 0 || dropped != 1 {
			t.Errorf("full buffer should drop, got delivered=%d dropped=%d", delivered, dropped)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}

func TestClosedSubscriptionStopsReceiving(t *testing.T) {
	r := NewRegistry()
	sub := r.Subscribe(7, 1)
	sub.Close()

	if delivered, _ := r.Publish(event(7)); delivered != 0 {
		t.Fatalf("closed subscription must not receive events")
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatalf("events channel should be closed")
	}
}

func TestWildcardReceivesEveryTopic(t *testing.T) {
	r := NewRegistry()
	all := r.SubscribeAll(2)
	defer all.Close()

	r.Publish(event(1))
	r.Publish(event(2))

	got := map[int64]bool{}
	for i := 0; i < 2; i++ {
		select {
		case evt := <-all.Events():
			got[evt.FlowerpotID] = true
		default:
			t.Fatalf("wildcard subscriber missed an event")
		}
	}
	if !got[1] || !got[2] {
		t.Fatalf("wildcard should see both pots, got %v", got)
	}
}
