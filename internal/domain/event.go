package domain

// EventType classifies what a session emits towards the transport.
type EventType string

const (
	EventGreeting EventType = "greeting"
	EventProgress EventType = "progress"
	EventQuestion EventType = "question"
	EventFeedback EventType = "feedback"
	EventFinish   EventType = "finish"
	EventError    EventType = "error"
	EventState    EventType = "state"
	EventAccuracy EventType = "stateUpdateAccuracy"
)

// Event is one typed message produced by a dialogue step. Lines carry the
// rendered text; State and Accuracy are set only for their event types.
type Event struct {
	Type     EventType `json:"type"`
	Lines    []string  `json:"lines,omitempty"`
	State    UserState `json:"state,omitempty"`
	Accuracy *float64  `json:"accuracy,omitempty"`
}

func NewEvent(t EventType, lines ...string) Event {
	return Event{Type: t, Lines: lines}
}
