package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testHandler is a configurable handler for testing.
type testHandler struct {
	id       string
	handles  []EventType
	priority int
	fn       func(ctx context.Context, event *Event, result *Result) error
}

func (h *testHandler) ID() string           { return h.id }
func (h *testHandler) Handles() []EventType { return h.handles }
func (h *testHandler) Priority() int        { return h.priority }

func (h *testHandler) Handle(ctx context.Context, event *Event, result *Result) error {
	if h.fn != nil {
		return h.fn(ctx, event, result)
	}
	return nil
}

func TestNew(t *testing.T) {
	bus := New()
	if bus == nil {
		t.Fatal("New() returned nil")
	}
}

func TestDispatchNoHandlers(t *testing.T) {
	bus := New()
	result, err := bus.Dispatch(context.Background(), &Event{
		Type:    EventNidraHeartbeat,
		ScopeID: "global",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Block {
		t.Error("expected block=false with no handlers")
	}
}

func TestDispatchNilEvent(t *testing.T) {
	bus := New()
	_, err := bus.Dispatch(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil event")
	}
}

func TestDispatchMatchingHandlersInPriorityOrder(t *testing.T) {
	bus := New()
	var called []string

	bus.Register(&testHandler{
		id:       "low-priority",
		handles:  []EventType{EventConsolidationStart},
		priority: 20,
		fn: func(ctx context.Context, event *Event, result *Result) error {
			called = append(called, "low-priority")
			return nil
		},
	})

	bus.Register(&testHandler{
		id:       "high-priority",
		handles:  []EventType{EventConsolidationStart},
		priority: 5,
		fn: func(ctx context.Context, event *Event, result *Result) error {
			called = append(called, "high-priority")
			return nil
		},
	})

	bus.Register(&testHandler{
		id:       "unrelated",
		handles:  []EventType{EventNavaRasaShift},
		priority: 1,
		fn: func(ctx context.Context, event *Event, result *Result) error {
			called = append(called, "unrelated")
			return nil
		},
	})

	_, err := bus.Dispatch(context.Background(), &Event{
		Type:      EventConsolidationStart,
		Timestamp: time.Unix(0, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(called) != 2 || called[0] != "high-priority" || called[1] != "low-priority" {
		t.Fatalf("unexpected call order: %v", called)
	}
}

func TestDispatchHandlerErrorDoesNotStopChain(t *testing.T) {
	bus := New()
	var secondCalled bool

	bus.Register(&testHandler{
		id:       "failing",
		handles:  []EventType{EventMemoryIndexed},
		priority: 1,
		fn: func(ctx context.Context, event *Event, result *Result) error {
			return errors.New("boom")
		},
	})
	bus.Register(&testHandler{
		id:       "survivor",
		handles:  []EventType{EventMemoryIndexed},
		priority: 2,
		fn: func(ctx context.Context, event *Event, result *Result) error {
			secondCalled = true
			return nil
		},
	})

	if _, err := bus.Dispatch(context.Background(), &Event{Type: EventMemoryIndexed}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !secondCalled {
		t.Fatal("expected second handler to run despite first handler's error")
	}
}

func TestDispatchRespectsCanceledContext(t *testing.T) {
	bus := New()
	bus.Register(&testHandler{
		id:      "any",
		handles: []EventType{EventNidraStateChange},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bus.Dispatch(ctx, &Event{Type: EventNidraStateChange})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestUnregister(t *testing.T) {
	bus := New()
	bus.Register(&testHandler{id: "h1", handles: []EventType{EventNidraHeartbeat}})
	bus.Register(&testHandler{id: "h2", handles: []EventType{EventNidraHeartbeat}})

	if !bus.Unregister("h1") {
		t.Fatal("expected Unregister to report removal")
	}
	if bus.Unregister("h1") {
		t.Fatal("expected second Unregister of same id to report false")
	}

	handlers := bus.Handlers()
	if len(handlers) != 1 || handlers[0].ID() != "h2" {
		t.Fatalf("unexpected remaining handlers: %v", handlers)
	}
}
