package bus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func newTestBridge(t *testing.T) *StreamBridge {
	t.Helper()
	mr := miniredis.RunT(t)
	sb, err := NewStreamBridge("redis://"+mr.Addr(), zap.NewNop())
	if err != nil {
		t.Fatalf("new stream bridge: %v", err)
	}
	t.Cleanup(func() { sb.Close() })
	return sb
}

func TestStreamBridgeMirrorsInOrder(t *testing.T) {
	sb := newTestBridge(t)

	for i := 1; i <= 3; i++ {
		sb.Publish("eco-1", Event{ID: fmt.Sprintf("e%d", i), Kind: EventInteraction, Timestamp: time.Now()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ch := sb.Subscribe(ctx, "eco-1", "0")
	for i := 1; i <= 3; i++ {
		select {
		case ev := <-ch:
			if want := fmt.Sprintf("e%d", i); ev.ID != want {
				t.Errorf("event %d: got %s, want %s", i, ev.ID, want)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestStreamBridgeScopesStreamsPerEcosystem(t *testing.T) {
	sb := newTestBridge(t)

	sb.Publish("eco-1", Event{ID: "only-eco-1"})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	ch := sb.Subscribe(ctx, "eco-2", "0")
	select {
	case ev, ok := <-ch:
		if ok {
			t.Errorf("eco-2 stream received %s", ev.ID)
		}
	case <-ctx.Done():
	}
}

func TestTeeFansOut(t *testing.T) {
	b1 := New(8, zap.NewNop())
	b2 := New(8, zap.NewNop())
	defer b1.Close()
	defer b2.Close()

	s1 := b1.Subscribe("eco-1")
	s2 := b2.Subscribe("eco-1")

	Tee{b1, b2}.Publish("eco-1", Event{ID: "e1"})

	for i, sub := range []*Subscription{s1, s2} {
		select {
		case ev := <-sub.Events():
			if ev.ID != "e1" {
				t.Errorf("publisher %d: got %s, want e1", i, ev.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("publisher %d never received the event", i)
		}
	}
}
