package eventbus

import "time"

// EventType is the closed set of event types the bus carries. Consumers (the sleep daemon, metrics exporters, a future HTTP
// surface) subscribe to exactly the types they care about rather than
// parsing a free-form string.
type EventType string

const (
	// EventNidraStateChange fires whenever the sleep-cycle state machine
	// transitions (LISTENING -> DREAMING -> DEEP_SLEEP -> LISTENING).
	EventNidraStateChange EventType = "nidra:state_change"

	// EventNidraHeartbeat fires on the daemon's periodic liveness tick.
	EventNidraHeartbeat EventType = "nidra:heartbeat"

	// EventConsolidationStart fires when a consolidation run begins.
	EventConsolidationStart EventType = "nidra:consolidation_start"

	// EventConsolidationEnd fires when a consolidation run completes,
	// successfully or not.
	EventConsolidationEnd EventType = "nidra:consolidation_end"

	// EventNavaRasaShift names a change of the dominant affective tone of
	// the nava-rasa simplex. No component in this module dispatches it.
	EventNavaRasaShift EventType = "nava_rasa:rasa_shift"

	// EventMemoryIndexed names the embedding of a turn, summary, or memory
	// entry into the vector store. No component in this module dispatches
	// it.
	EventMemoryIndexed EventType = "memory:indexed"

	// EventConsolidationDayWritten names the writing of a day-level summary
	// (first write or forced regeneration). No component in this module
	// dispatches it.
	EventConsolidationDayWritten EventType = "consolidation:day_written"
)

// Event is a single occurrence flowing through the bus. Payload carries
// type-specific data; handlers type-assert on the fields they need.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	ScopeID   string                 `json:"scope_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Result aggregates handler responses for an event. Most handlers are
// observers and leave this untouched; a policy-aware handler may set Block
// to veto whatever triggered the event (e.g. refuse a consolidation run).
type Result struct {
	Block    bool     `json:"block,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
