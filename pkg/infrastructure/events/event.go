// Package events records what happens during an optimization run as an append-only stream.
package events

import (
	"slices"
	"time"
)

// Event is one entry of a run stream. Version is the 1-based position
// within its stream and is assigned when the event is appended.
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler reacts to appended events of the types it accepts
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends run events and fans them out to subscribers
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// RunEvent is the concrete event carried through a run stream
type RunEvent struct {
	Kind     string      `json:"type"`
	RunID    string      `json:"run_id"`
	Payload  interface{} `json:"data"`
	At       time.Time   `json:"time"`
	Sequence int         `json:"sequence"`
}

func (e RunEvent) Type() string         { return e.Kind }
func (e RunEvent) StreamID() string     { return e.RunID }
func (e RunEvent) Data() interface{}    { return e.Payload }
func (e RunEvent) Timestamp() time.Time { return e.At }
func (e RunEvent) Version() int         { return e.Sequence }

// NewEvent creates an event for streamID; the store assigns its version on append
func NewEvent(eventType, streamID string, data interface{}) Event {
	return RunEvent{
		Kind:    eventType,
		RunID:   streamID,
		Payload: data,
		At:      time.Now(),
	}
}

// sequenced copies e into a RunEvent positioned at seq within streamID
func sequenced(e Event, streamID string, seq int) RunEvent {
	return RunEvent{
		Kind:     e.Type(),
		RunID:    streamID,
		Payload:  e.Data(),
		At:       e.Timestamp(),
		Sequence: seq,
	}
}

// HandlerFunc adapts a function into an EventHandler for the given event types
type HandlerFunc struct {
	Types []string
	Fn    func(Event) error
}

func (h *HandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

func (h *HandlerFunc) CanHandle(eventType string) bool {
	return slices.Contains(h.Types, eventType)
}
