package sse

const (
	EventProgress = "progress"
	EventDone     = "done"
	EventError    = "error"
)

// Event is the payload of one server-sent event.
type Event struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func Progress(id string, data any) Event {
	return Event{Type: EventProgress, ID: id, Data: data}
}

func Done(id string, data any) Event {
	return Event{Type: EventDone, ID: id, Data: data}
}

func Error(id, code, message string) Event {
	return Event{Type: EventError, ID: id, Code: code, Message: message}
}
