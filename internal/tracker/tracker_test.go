package tracker

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rc1405/fiddler-sub001/internal/message"
)

func TestTracker_SingleNewAcksOnOutput(t *testing.T) {
	tr := New(8, nil)
	defer tr.Stop()

	id := uuid.New()
	acked := make(chan bool, 1)
	tr.Register(id, func(success bool) { acked <- success })

	tr.Events() <- message.State{MessageID: id, Status: message.StatusOutput}

	select {
	case success := <-acked:
		if !success {
			t.Fatalf("expected success ack")
		}
	case <-time.After(time.Second):
		t.Fatal("ack never fired")
	}

	if !tr.Empty() {
		t.Fatalf("expected tracker to be empty after completion")
	}
}

func TestTracker_FanOutWaitsForAllDescendants(t *testing.T) {
	tr := New(8, nil)
	defer tr.Stop()

	id := uuid.New()
	acked := make(chan bool, 1)
	tr.Register(id, func(success bool) { acked <- success })

	// Simulate a processor fanning one message out into three.
	tr.Events() <- message.State{MessageID: id, Status: message.StatusNew}
	tr.Events() <- message.State{MessageID: id, Status: message.StatusNew}

	tr.Events() <- message.State{MessageID: id, Status: message.StatusOutput}
	tr.Events() <- message.State{MessageID: id, Status: message.StatusOutput}

	select {
	case <-acked:
		t.Fatal("ack fired before all descendants completed")
	case <-time.After(100 * time.Millisecond):
	}

	tr.Events() <- message.State{MessageID: id, Status: message.StatusOutput}

	select {
	case success := <-acked:
		if !success {
			t.Fatalf("expected success ack")
		}
	case <-time.After(time.Second):
		t.Fatal("ack never fired")
	}
}

func TestTracker_ErrorMarksFailureButStillAcksOnce(t *testing.T) {
	tr := New(8, nil)
	defer tr.Stop()

	id := uuid.New()
	acked := make(chan bool, 1)
	tr.Register(id, func(success bool) { acked <- success })

	tr.Events() <- message.State{MessageID: id, Status: message.StatusProcessError, Detail: "boom"}

	select {
	case success := <-acked:
		if success {
			t.Fatalf("expected failure ack")
		}
	case <-time.After(time.Second):
		t.Fatal("ack never fired")
	}
}

func TestTracker_DuplicateRegisterIsRejected(t *testing.T) {
	tr := New(8, nil)
	defer tr.Stop()

	id := uuid.New()
	tr.Register(id, func(bool) {})
	tr.Register(id, func(bool) {})

	snap := tr.Snapshot()
	if snap.DuplicatesRejected != 1 {
		t.Fatalf("expected 1 duplicate rejection, got %d", snap.DuplicatesRejected)
	}
}

func TestTracker_ConditionalDropCounted(t *testing.T) {
	tr := New(8, nil)
	defer tr.Stop()

	id := uuid.New()
	acked := make(chan bool, 1)
	tr.Register(id, func(success bool) { acked <- success })

	tr.Events() <- message.State{MessageID: id, Status: message.StatusConditionalDropped}

	<-acked
	snap := tr.Snapshot()
	if snap.ConditionalDrops != 1 {
		t.Fatalf("expected 1 conditional drop, got %d", snap.ConditionalDrops)
	}
}
