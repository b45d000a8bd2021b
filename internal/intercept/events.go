package intercept

import (
	"sync"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// EventType names a pipeline stage observers can subscribe to.
type EventType string

const (
	// EventPromptReceived fires before classification; Prompt is set.
	EventPromptReceived EventType = "prompt_received"
	// EventClassified fires after classification; Classification is set.
	EventClassified EventType = "classified"
	// EventEvaluated fires after policy evaluation; Evaluation is set.
	EventEvaluated EventType = "evaluated"
	// EventResponse fires after an allowed downstream call; Evaluation
	// carries the attached response.
	EventResponse EventType = "response"
	// EventBlocked fires instead of EventResponse for BLOCK decisions.
	EventBlocked EventType = "blocked"
	// EventAlert fires once per alert target on the evaluation, after the
	// response/blocked branch; AlertTarget is set.
	EventAlert EventType = "alert"
)

// Event is the single payload shape delivered to every handler. Fields are
// populated according to the event type; unused fields are zero.
type Event struct {
	Type           EventType
	Prompt         string
	Metadata       map[string]string
	Classification *model.Classification
	Evaluation     *model.Evaluation
	AlertTarget    string
}

// Handler receives pipeline events. Handlers run synchronously on the
// pipeline's call stack, in registration order: a slow handler stalls the
// pipeline, and a panicking handler aborts it. Handlers must be non-blocking
// and must not panic; anything slow belongs in a goroutine the handler owns.
type Handler func(Event)

// Bus is a registry of ordered subscriber lists per event type.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers a handler for one event type. Handlers fire in the
// order they were registered.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every pipeline event type.
func (b *Bus) SubscribeAll(h Handler) {
	for _, t := range []EventType{
		EventPromptReceived, EventClassified, EventEvaluated,
		EventResponse, EventBlocked, EventAlert,
	} {
		b.Subscribe(t, h)
	}
}

// Emit delivers the event to subscribers synchronously, in registration
// order, on the caller's stack.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	hs := b.handlers[e.Type]
	b.mu.RUnlock()
	for _, h := range hs {
		h(e)
	}
}
