// Package plugin defines the capability interfaces the core consumes from
// input, output, processor, and metrics plugins (spec.md §4.7). These are
// the idiomatic Go shape of the Rust async_trait Input/Output/Processor
// traits in lib/src/lib.rs: suspension is expressed as an ordinary blocking
// method call made from within a goroutine, and context.Context threads
// cancellation the way the Rust runtime threads a cancel token.
package plugin

import (
	"context"

	"github.com/rc1405/fiddler-sub001/internal/message"
)

// Input reads messages into a pipeline. Read returns ferrors.EndOfInput when
// exhausted. The returned AckFunc, if non-nil, is invoked exactly once by
// the lifecycle tracker when every descendant of the returned message has
// terminated.
type Input interface {
	Read(ctx context.Context) (message.Message, message.AckFunc, error)
	Close(ctx context.Context) error
}

// Output writes a message to its destination. Close must be idempotent and
// safe to call after any number of Write calls, including zero.
type Output interface {
	Write(ctx context.Context, m message.Message) error
	Close(ctx context.Context) error
}

// Processor transforms one message into zero-to-many successor messages.
// Returning (nil, ferrors.ConditionalCheckFailed) signals a conditional drop
// rather than a processing failure.
type Processor interface {
	Process(ctx context.Context, m message.Message) ([]message.Message, error)
	Close(ctx context.Context) error
}

// BatchInput is an optional extension mirroring spec.md §9's InputBatch:
// same lifecycle contract as Input, but reads many messages per call. No
// built-in plugin implements it, and neither the binder nor the runtime
// references it; the registry's InputBatch/OutputBatch kinds exist alongside
// it, and a lookup under them fails with ConfigurationItemNotFound while
// nothing is registered there.
type BatchInput interface {
	ReadBatch(ctx context.Context) ([]message.Message, message.AckFunc, error)
	Close(ctx context.Context) error
}

// BatchOutput is the output-side analogue of BatchInput.
type BatchOutput interface {
	WriteBatch(ctx context.Context, ms []message.Message) error
	Close(ctx context.Context) error
}

// Metrics is the interface the runtime uses to publish aggregate counters.
// Implementations are external collaborators (spec.md §1). The runtime calls
// Record once per run, with the final snapshot taken after every stage has
// drained; it does not report counters while the run is in progress.
type Metrics interface {
	Record(c Counters)
}

// Counters is the aggregate snapshot the runtime reports to a Metrics
// backend (spec.md §6).
type Counters struct {
	Received          uint64
	Completed         uint64
	ProcessErrors     uint64
	OutputErrors      uint64
	StreamsStarted    uint64
	StreamsCompleted  uint64
	DuplicatesRejected uint64
	StaleEntriesRemoved uint64
	InFlight          int64
	ThroughputPerSec  float64
}
