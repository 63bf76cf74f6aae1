// Package message defines the data moving through a fiddler pipeline: the
// immutable-by-convention Message, the tracker-visible InternalMessage that
// wraps it with a message id, and the MessageState events that flow down the
// parallel state channel into the lifecycle tracker. Grounded on the Rust
// Message/InternalMessage/InternalMessageState/MessageStatus types referenced
// throughout fiddler/src/modules/processors/mod.rs and
// lib/src/modules/outputs/mod.rs.
package message

import (
	"maps"

	"github.com/google/uuid"
)

// Message is the payload moving through the pipeline. A processor consumes
// one Message and produces zero-to-many successor Messages; each successor
// inherits the parent's Metadata and StreamID unless the processor
// overwrites them.
type Message struct {
	Payload    []byte
	Metadata   map[string]string
	StreamID   string
}

// New returns a Message with a freshly allocated metadata map, copying the
// given metadata so callers can't mutate the original through it.
func New(payload []byte, metadata map[string]string, streamID string) Message {
	m := Message{Payload: payload, StreamID: streamID, Metadata: make(map[string]string, len(metadata))}
	maps.Copy(m.Metadata, metadata)
	return m
}

// Copy returns a deep-enough copy of m: a new payload slice and a new
// metadata map, suitable for handing to a second, independent processor
// branch (e.g. a switch composite's non-matching fallback) without aliasing.
func (m Message) Copy() Message {
	payload := make([]byte, len(m.Payload))
	copy(payload, m.Payload)
	return New(payload, m.Metadata, m.StreamID)
}

// AckFunc is the one-shot acknowledgement handle an Input returns alongside
// a Message. Firing it tells the input the message is fully processed,
// successfully or not. The consolidated runtime shape (spec.md §9's open
// question) expresses the one-shot acknowledgement as this plain callback
// rather than as a channel.
type AckFunc func(success bool)

// InternalMessage wraps a Message with the message id assigned at ingest.
// The pair (MessageID, StreamID) is how the tracker identifies a descendant.
type InternalMessage struct {
	ID      uuid.UUID
	Message Message
}

// Status is the terminal or informational state of one descendant of a
// message id, as reported by a pipeline stage to the lifecycle tracker.
type Status int

const (
	// StatusNew indicates a processor fan-out created one additional
	// descendant beyond the one the incoming message already accounted for.
	StatusNew Status = iota
	// StatusProcessError indicates a processor failed for this message.
	StatusProcessError
	// StatusConditionalDropped indicates a check/switch composite's
	// predicate did not match and the message was dropped, not an error.
	StatusConditionalDropped
	// StatusOutput indicates the output stage delivered the message.
	StatusOutput
	// StatusOutputError indicates the output stage failed to deliver.
	StatusOutputError
	// StatusShutdown is the terminal sentinel emitted once by the output
	// stage when its input channel closes and drains.
	StatusShutdown
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusProcessError:
		return "ProcessError"
	case StatusConditionalDropped:
		return "ConditionalDropped"
	case StatusOutput:
		return "Output"
	case StatusOutputError:
		return "OutputError"
	case StatusShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// State is one state-change event carried on the parallel state channel from
// every stage into the lifecycle tracker.
type State struct {
	MessageID uuid.UUID
	StreamID  string
	Status    Status
	Detail    string
}
