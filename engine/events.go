package engine

// EventType represents the type of event delivered to the coordinator
type EventType string

const (
	EventStreamChunk    EventType = "stream_chunk"    // Data: string
	EventStreamComplete EventType = "stream_complete" // no payload
	EventStreamError    EventType = "stream_error"    // Data: string message
	EventCancel         EventType = "cancel"
)

// Event represents an event in the coordinator
type Event struct {
	Type EventType
	Data any
}

// eventMessage returns the string payload of an event
func eventMessage(ev Event) string {
	if s, ok := ev.Data.(string); ok {
		return s
	}
	if err, ok := ev.Data.(error); ok && err != nil {
		return err.Error()
	}
	return ""
}
