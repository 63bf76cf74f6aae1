// Package pipeline implements the staged, concurrent execution engine
// described in spec.md §4.5: one input task, N workers per processor stage,
// one output task, and one tracker task, connected by bounded channels.
// Grounded on the Rust run_processor/run_output task loops in
// original_source/fiddler/src/modules/processors/mod.rs and
// original_source/lib/src/modules/outputs/mod.rs, translated from their
// try_recv-plus-sleep polling loop into Go's native select-on-channel
// blocking receive (idiomatic Go has no need for the Rust version's
// EMPTY_CHANNEL_BACKOFF_MS poll, since a channel receive already parks the
// goroutine until data or closure).
package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rc1405/fiddler-sub001/internal/config"
	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/log"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/tracker"
)

// pkgTracer is the package's otel.Tracer handle. With no exporter SDK wired
// (the document's tracer stanza only names a backend; no
// OTLP/Jaeger exporter package is in this module's dependency set), spans
// created through it are no-ops under the default global TracerProvider,
// but the instrumentation points themselves are real and start emitting the
// moment a caller registers a concrete SDK provider via otel.SetTracerProvider.
var pkgTracer = otel.Tracer("github.com/rc1405/fiddler-sub001/internal/pipeline")

// channelCapacity bounds every stage-to-stage channel, enforcing backpressure
// per spec.md §4.5 step 1 ("bounded, default capacity 1-16").
const channelCapacity = 16

// stateChanCapacity is sized generously since the tracker must never block a
// stage's forward progress on a slow tracker consumer; the tracker itself
// drains as fast as the map mutation allows.
const stateChanCapacity = 256

// Result is returned by Run once the pipeline has fully drained.
type Result struct {
	Snapshot tracker.Snapshot
	// FatalErr is set when the run ended due to a non-recoverable plugin
	// error rather than clean input exhaustion, cancellation, or timeout.
	FatalErr error
}

// Runtime wraps a BoundPipeline with the channels, tasks, and tracker needed
// to execute it once via Run. A Runtime is single-use: construct a new one
// per run.
type Runtime struct {
	bound *config.BoundPipeline
	log   log.Modular

	tracker *tracker.Tracker

	stages []chan message.InternalMessage

	mu       sync.Mutex
	fatalErr error
	cancel   context.CancelFunc
}

// New builds a Runtime over a bound pipeline description. logger may be nil,
// in which case internal/log's default stderr logger is used.
func New(bound *config.BoundPipeline, logger log.Modular) *Runtime {
	if logger == nil {
		logger = log.New(nil)
	}
	tr := tracker.New(stateChanCapacity, logger)

	stageCount := len(bound.Processors) + 1
	stages := make([]chan message.InternalMessage, stageCount)
	for i := range stages {
		stages[i] = make(chan message.InternalMessage, channelCapacity)
	}

	return &Runtime{
		bound:   bound,
		log:     logger,
		tracker: tr,
		stages:  stages,
	}
}

// Run executes the bound pipeline to completion: it spawns the input task,
// one worker-pool per processor stage, the output task, reads input until
// EndOfInput/cancellation/timeout, drains every stage in order, and joins
// the tracker. It implements spec.md §4.5 steps 2-5.
func (r *Runtime) Run(ctx context.Context) Result {
	if r.bound.Tracer.Type != "" && r.bound.Tracer.Type != "none" {
		r.log.Debug("tracer configured", "backend", r.bound.Tracer.Type)
	}

	if r.bound.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, r.bound.Timeout)
		defer timeoutCancel()
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.runInput(ctx)
	}()

	for stageIdx, proc := range r.bound.Processors {
		in := r.stages[stageIdx]
		out := r.stages[stageIdx+1]

		var stageWG sync.WaitGroup
		stageWG.Add(r.bound.WorkerCount)
		wg.Add(1)
		go func(out chan message.InternalMessage) {
			defer wg.Done()
			stageWG.Wait()
			close(out)
		}(out)

		for w := 0; w < r.bound.WorkerCount; w++ {
			go func(proc plugin.Processor, in, out chan message.InternalMessage) {
				defer stageWG.Done()
				r.runProcessor(ctx, proc, in, out)
			}(proc, in, out)
		}
	}

	finalIn := r.stages[len(r.stages)-1]
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.runOutput(ctx, finalIn)
	}()

	wg.Wait()
	r.tracker.Stop()

	snap := r.tracker.Snapshot()
	if r.bound.Metrics != nil {
		r.bound.Metrics.Record(plugin.Counters{
			Completed:          snap.Completed,
			ProcessErrors:      snap.ProcessErrors,
			OutputErrors:       snap.OutputErrors,
			DuplicatesRejected: snap.DuplicatesRejected,
			InFlight:           int64(snap.InFlight),
		})
	}

	return Result{
		Snapshot: snap,
		FatalErr: r.fatal(),
	}
}

// setFatal records a non-recoverable error and cancels the run's context, so
// every other stage observes closure and drains rather than continuing to
// process as if nothing happened (spec.md §4.5 step 4, §7's ProcessingError
// contract). It must only be called for errors that are fatal by default;
// OutputError is explicitly not one of those (spec.md §7).
func (r *Runtime) setFatal(err error) {
	r.mu.Lock()
	if r.fatalErr == nil {
		r.fatalErr = err
	}
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runtime) fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatalErr
}

// runInput is the input loop of spec.md §4.5: read, register with the
// tracker, forward. Closes the first stage channel on EndOfInput,
// cancellation, or a fatal read error, guaranteeing every downstream worker
// eventually observes closure and drains.
func (r *Runtime) runInput(ctx context.Context) {
	firstStage := r.stages[0]
	defer close(firstStage)

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("input loop stopping", "reason", ctx.Err())
			return
		default:
		}

		msg, ack, err := r.bound.Input.Read(ctx)
		if err != nil {
			if err == ferrors.EndOfInput {
				r.log.Debug("input exhausted")
				return
			}
			r.log.Error("fatal read error from input", "error", err)
			r.setFatal(err)
			return
		}

		id := uuid.New()
		if ack == nil {
			ack = func(bool) {}
		}
		r.tracker.Register(id, ack)

		im := message.InternalMessage{ID: id, Message: msg}
		select {
		case firstStage <- im:
		case <-ctx.Done():
			// Cancellation mid-send: the message was registered but never
			// forwarded, so it is abandoned rather than acknowledged. This
			// can only happen on a non-clean shutdown (timeout or explicit
			// cancellation), which is exempt from the "tracker map empty on
			// drain" invariant (spec.md §4.4).
			return
		}
	}
}

// runProcessor is one worker of a processor stage (spec.md §4.5): reads
// from in, calls Process, forwards k successors while emitting k-1 New
// state events, or emits ConditionalDropped/ProcessError on failure. A
// ConditionalCheckFailed result is recoverable per-message; any other error
// is fatal by default (spec.md §7) and cancels the run via setFatal, which
// closes inChan upstream and drains every stage rather than absorbing the
// error silently.
func (r *Runtime) runProcessor(ctx context.Context, proc plugin.Processor, in, out chan message.InternalMessage) {
	for im := range in {
		spanCtx, span := pkgTracer.Start(ctx, "processor.Process", trace.WithSpanKind(trace.SpanKindInternal))
		successors, err := proc.Process(spanCtx, im.Message)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		if err != nil {
			if err == ferrors.ConditionalCheckFailed {
				r.tracker.Events() <- message.State{
					MessageID: im.ID,
					StreamID:  im.Message.StreamID,
					Status:    message.StatusConditionalDropped,
				}
				continue
			}
			r.log.Error("processor error", "message_id", im.ID.String(), "error", err)
			r.tracker.Events() <- message.State{
				MessageID: im.ID,
				StreamID:  im.Message.StreamID,
				Status:    message.StatusProcessError,
				Detail:    err.Error(),
			}
			r.setFatal(err)
			continue
		}

		if len(successors) == 0 {
			r.tracker.Events() <- message.State{
				MessageID: im.ID,
				StreamID:  im.Message.StreamID,
				Status:    message.StatusConditionalDropped,
			}
			continue
		}

		for i := 0; i < len(successors)-1; i++ {
			r.tracker.Events() <- message.State{
				MessageID: im.ID,
				StreamID:  im.Message.StreamID,
				Status:    message.StatusNew,
			}
		}

		for _, succ := range successors {
			next := message.InternalMessage{ID: im.ID, Message: succ}
			select {
			case out <- next:
			case <-ctx.Done():
				// Abandoned on cancellation; see runInput's matching comment.
				return
			}
		}
	}
}

// runOutput is the output loop of spec.md §4.5: reads the final channel,
// calls Write, emits Output, ConditionalDropped, or OutputError, and emits
// one terminal Shutdown event once the channel is closed and drained. A
// standalone check-output's ConditionalCheckFailed is recoverable per-message
// (spec.md §7, "terminates that message with ConditionalDropped status");
// any other OutputError is reported via lifecycle but does not stop the
// runtime by default, since no error-budget feature exists to escalate it.
func (r *Runtime) runOutput(ctx context.Context, in chan message.InternalMessage) {
	for im := range in {
		spanCtx, span := pkgTracer.Start(ctx, "output.Write", trace.WithSpanKind(trace.SpanKindProducer))
		err := r.bound.Output.Write(spanCtx, im.Message)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		if err == ferrors.ConditionalCheckFailed {
			r.tracker.Events() <- message.State{
				MessageID: im.ID,
				StreamID:  im.Message.StreamID,
				Status:    message.StatusConditionalDropped,
			}
			continue
		}
		if err != nil {
			r.log.Error("output error", "message_id", im.ID.String(), "error", err)
			r.tracker.Events() <- message.State{
				MessageID: im.ID,
				StreamID:  im.Message.StreamID,
				Status:    message.StatusOutputError,
				Detail:    err.Error(),
			}
			continue
		}
		r.tracker.Events() <- message.State{
			MessageID: im.ID,
			StreamID:  im.Message.StreamID,
			Status:    message.StatusOutput,
		}
	}

	if err := r.bound.Output.Close(ctx); err != nil {
		r.log.Error("output close error", "error", err)
	}
	for _, proc := range r.bound.Processors {
		if err := proc.Close(ctx); err != nil {
			r.log.Error("processor close error", "error", err)
		}
	}
	if err := r.bound.Input.Close(ctx); err != nil {
		r.log.Error("input close error", "error", err)
	}

	r.tracker.Events() <- message.State{Status: message.StatusShutdown}
}
