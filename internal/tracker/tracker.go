// Package tracker implements the message lifecycle tracker described in
// spec.md §4.4: a map from message id to LifecycleEntry that fires each
// message's acknowledgement callback exactly once. One actor goroutine
// applies every state event read off the state channel, and acknowledgements
// fire only from it, which gives the "exactly once" invariant a single
// linearization point. Register inserts new entries directly from the
// caller's goroutine and Snapshot reads from any goroutine, so the map and
// counters are guarded by a mutex shared with the actor rather than owned by
// the actor alone. It is the direct generalization of the
// InternalMessageState/MessageStatus flow referenced
// in fiddler/src/modules/processors/mod.rs and
// lib/src/modules/outputs/mod.rs.
package tracker

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rc1405/fiddler-sub001/internal/log"
	"github.com/rc1405/fiddler-sub001/internal/message"
)

// entry is the per-message-id bookkeeping described in spec.md §3.
type entry struct {
	descendants int
	firstError  string
	hasError    bool
	ack         message.AckFunc
}

// Snapshot is a point-in-time view of tracker-owned counters, used by the
// runtime to feed the metrics adapter (spec.md §4.7).
type Snapshot struct {
	InFlight           int
	Completed          uint64
	ProcessErrors      uint64
	OutputErrors       uint64
	ConditionalDrops   uint64
	DuplicatesRejected uint64
}

// Tracker owns the lifecycle map. Create one with New, add message ids via
// Register, feed state events via Events, and read back aggregate state via
// Snapshot, which is safe to call at any time and final once Stop has
// returned.
type Tracker struct {
	events chan message.State
	log    log.Modular

	mu    sync.Mutex
	table map[uuid.UUID]*entry

	completed          uint64
	processErrors      uint64
	outputErrors       uint64
	conditionalDrops   uint64
	duplicatesRejected uint64

	done chan struct{}
}

// New returns a Tracker with the given state-event channel capacity and
// starts its actor loop. Call Stop to drain and join it.
func New(capacity int, logger log.Modular) *Tracker {
	if logger == nil {
		logger = log.New(nil)
	}
	t := &Tracker{
		events: make(chan message.State, capacity),
		log:    logger,
		table:  make(map[uuid.UUID]*entry),
		done:   make(chan struct{}),
	}
	go t.loop()
	return t
}

// Events returns the send side of the state channel every stage publishes
// to.
func (t *Tracker) Events() chan<- message.State {
	return t.events
}

// Register records a freshly ingested message id with its acknowledgement
// callback and a descendant count of one (spec.md §4.4). It is invalid to
// call Register twice for the same id; doing so is treated as a duplicate
// and reported via the DuplicatesRejected counter instead of corrupting the
// existing entry.
func (t *Tracker) Register(id uuid.UUID, ack message.AckFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.table[id]; exists {
		t.duplicatesRejected++
		t.log.Warn("duplicate message id registered", "message_id", id.String())
		return
	}
	t.table[id] = &entry{descendants: 1, ack: ack}
}

// loop is the tracker's single goroutine: it applies every state event read
// off the state channel until the channel is closed and drained. New entries
// are inserted by Register, not here.
func (t *Tracker) loop() {
	defer close(t.done)
	for ev := range t.events {
		t.apply(ev)
	}
}

func (t *Tracker) apply(ev message.State) {
	if ev.Status == message.StatusShutdown {
		// The terminal sentinel from the output stage carries no message
		// id (spec.md §3); it exists only to mark that the output loop has
		// finished draining, and needs no lifecycle-map lookup.
		return
	}

	t.mu.Lock()
	e, ok := t.table[ev.MessageID]
	if !ok {
		t.mu.Unlock()
		t.log.Warn("state event for unknown message id", "message_id", ev.MessageID.String(), "status", ev.Status.String())
		return
	}

	switch ev.Status {
	case message.StatusNew:
		e.descendants++
		t.mu.Unlock()
		return
	case message.StatusProcessError:
		t.processErrors++
		if !e.hasError {
			e.hasError = true
			e.firstError = ev.Detail
		}
	case message.StatusOutputError:
		t.outputErrors++
		if !e.hasError {
			e.hasError = true
			e.firstError = ev.Detail
		}
	case message.StatusConditionalDropped:
		t.conditionalDrops++
	case message.StatusOutput:
		t.completed++
	}

	e.descendants--
	finished := e.descendants <= 0
	var ack message.AckFunc
	var success bool
	if finished {
		ack = e.ack
		success = !e.hasError
		delete(t.table, ev.MessageID)
	}
	t.mu.Unlock()

	if finished && ack != nil {
		t.fireAck(ev.MessageID, ack, success)
	}
}

// fireAck invokes the acknowledgement callback exactly once. A panic from
// the callback is logged, not propagated: per spec.md §4.4, "a callback
// that itself errors is logged and does not propagate."
func (t *Tracker) fireAck(id uuid.UUID, ack message.AckFunc, success bool) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("acknowledge callback panicked", "message_id", id.String(), "recovered", r)
		}
	}()
	ack(success)
}

// Stop closes the state channel and blocks until the actor loop has drained
// and exited.
func (t *Tracker) Stop() {
	close(t.events)
	<-t.done
}

// Snapshot returns the current counters and outstanding in-flight count.
// Safe to call concurrently with the actor loop.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		InFlight:           len(t.table),
		Completed:          t.completed,
		ProcessErrors:      t.processErrors,
		OutputErrors:       t.outputErrors,
		ConditionalDrops:   t.conditionalDrops,
		DuplicatesRejected: t.duplicatesRejected,
	}
}

// Empty reports whether the lifecycle map is empty, the invariant that must
// hold once a run has drained cleanly (spec.md §4.4).
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.table) == 0
}
