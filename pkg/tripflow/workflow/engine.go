package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
	"github.com/randalmurphal/tripflow/pkg/tripflow/observability"
)

// StepFunc executes one workflow step. It receives the current workflow
// state and returns the updated state (or the same state) and any error.
// State is passed by value; steps should return a new value, not rely on
// pointer mutation.
type StepFunc[S any] func(ctx context.Context, state S) (S, error)

// FailoverFunc runs when a step exhausts its retry budget, before the
// instance is committed as ERROR. It must not fail; it typically logs
// failure context.
type FailoverFunc[S any] func(ctx context.Context, state S)

// Step is one unit of workflow execution: an external call followed by a
// committed state transition.
type Step[S any] struct {
	// Name identifies this step.
	Name string

	// Run executes the step.
	Run StepFunc[S]

	// Timeout bounds one invocation of Run. Zero means no timeout.
	// Exceeding it is a transient step failure feeding retry/failover.
	Timeout time.Duration

	// Status is committed to the instance after the step succeeds.
	// The final step must declare StatusCompleted.
	Status Status
}

// Definition defines a complete workflow: an ordered step sequence and a
// failover target.
type Definition[S any] struct {
	// Name identifies this workflow type.
	Name string

	// Steps are executed in order, each transition durably persisted
	// before the next step begins.
	Steps []Step[S]

	// OnFailure is the failover step, run after a step exhausts its
	// retry budget and before the ERROR commit. Optional.
	OnFailure FailoverFunc[S]

	// Retry is the per-step retry configuration.
	// Zero value means faults.DefaultRetry.
	Retry faults.RetryConfig
}

// Validate checks the definition for errors.
func (d Definition[S]) Validate() error {
	if d.Name == "" {
		return errors.New("workflow: definition name cannot be empty")
	}
	if len(d.Steps) == 0 {
		return errors.New("workflow: definition needs at least one step")
	}

	seen := make(map[string]bool, len(d.Steps))
	for i, step := range d.Steps {
		if step.Name == "" {
			return fmt.Errorf("workflow: step %d has no name", i)
		}
		if step.Run == nil {
			return fmt.Errorf("workflow: step %s has no run function", step.Name)
		}
		if seen[step.Name] {
			return fmt.Errorf("workflow: duplicate step name: %s", step.Name)
		}
		seen[step.Name] = true

		if step.Status == StatusError {
			return fmt.Errorf("workflow: step %s cannot commit ERROR", step.Name)
		}
		if i < len(d.Steps)-1 && step.Status == StatusCompleted {
			return fmt.Errorf("workflow: only the final step may commit COMPLETED")
		}
	}

	if d.Steps[len(d.Steps)-1].Status != StatusCompleted {
		return errors.New("workflow: final step must commit COMPLETED")
	}
	return nil
}

// Engine drives workflow instances through a definition's steps, persisting
// every transition before the next step begins. Each instance runs on its
// own goroutine; one instance's suspension never blocks another.
type Engine[S any] struct {
	def     Definition[S]
	store   Store
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	base    context.Context

	mu      sync.Mutex
	running map[string]bool
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option[S any] func(*Engine[S])

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger[S any](logger *slog.Logger) Option[S] {
	return func(e *Engine[S]) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Defaults to NoopMetrics.
func WithMetrics[S any](m observability.MetricsRecorder) Option[S] {
	return func(e *Engine[S]) {
		e.metrics = m
	}
}

// WithSpanManager sets the span manager. Defaults to NoopSpanManager.
func WithSpanManager[S any](sm observability.SpanManager) Option[S] {
	return func(e *Engine[S]) {
		e.spans = sm
	}
}

// WithBaseContext sets the context instance goroutines derive from.
// Cancelling it stops in-flight instances at their next committed state;
// they resume on the next Resume call. Defaults to context.Background().
func WithBaseContext[S any](ctx context.Context) Option[S] {
	return func(e *Engine[S]) {
		e.base = ctx
	}
}

// NewEngine creates an engine for a definition over a durable instance store.
func NewEngine[S any](def Definition[S], store Store, opts ...Option[S]) (*Engine[S], error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("workflow: store cannot be nil")
	}

	if def.Retry.MaxAttempts == 0 {
		def.Retry = faults.DefaultRetry
	}

	e := &Engine[S]{
		def:     def,
		store:   store,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		base:    context.Background(),
		running: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start creates a workflow instance and begins driving it asynchronously.
// It returns once the initial STARTED state is durable; a duplicate id
// fails with *faults.AlreadyStartedError. Step failures are absorbed by the
// retry/failover policy and only surface as the instance's terminal ERROR
// status, inspectable via GetState.
func (e *Engine[S]) Start(ctx context.Context, id string, state S) error {
	if id == "" {
		return &faults.ValidationError{Field: "id", Message: "cannot be empty"}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("serialize state: %w", err)
	}

	inst := Instance{
		ID:       id,
		Workflow: e.def.Name,
		Step:     e.def.Steps[0].Name,
		Status:   StatusStarted,
		State:    data,
	}
	if err := e.store.Create(ctx, inst); err != nil {
		return err
	}

	observability.LogWorkflowStart(e.logger, e.def.Name, id)
	e.spawn(inst)
	return nil
}

// GetState returns the current instance snapshot, including terminal ones.
// Fails with *faults.NotFoundError for a never-started id.
func (e *Engine[S]) GetState(ctx context.Context, id string) (Instance, error) {
	return e.store.Load(ctx, id)
}

// Resume re-drives all non-terminal instances from their last committed
// state. Call once after process start for crash recovery; instances
// already running in this process are skipped.
func (e *Engine[S]) Resume(ctx context.Context) error {
	active, err := e.store.ListActive(ctx, e.def.Name)
	if err != nil {
		return err
	}
	for _, inst := range active {
		e.spawn(inst)
	}
	return nil
}

// Wait blocks until all in-flight instances reach a terminal state or the
// base context is cancelled. Intended for tests and shutdown.
func (e *Engine[S]) Wait() {
	e.wg.Wait()
}

// spawn starts an instance goroutine unless one is already driving this id.
func (e *Engine[S]) spawn(inst Instance) {
	e.mu.Lock()
	if e.running[inst.ID] {
		e.mu.Unlock()
		return
	}
	e.running[inst.ID] = true
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.running, inst.ID)
			e.mu.Unlock()
		}()
		e.run(inst)
	}()
}

// run drives one instance from its committed step to a terminal state.
func (e *Engine[S]) run(inst Instance) {
	done := observability.TimedOperation()
	logger := observability.EnrichLogger(e.logger, inst.Workflow, inst.ID, inst.Step)

	runCtx, runSpan := e.spans.StartRunSpan(e.base, e.def.Name, inst.ID)

	var state S
	if err := json.Unmarshal(inst.State, &state); err != nil {
		e.failover(runCtx, logger, inst, state, fmt.Errorf("deserialize state: %w", err))
		e.spans.EndSpanWithError(runSpan, err)
		return
	}

	idx := e.stepIndex(inst.Step)
	if idx < 0 {
		err := &faults.ConfigurationError{
			Message: fmt.Sprintf("instance %s committed at unknown step %q", inst.ID, inst.Step),
		}
		e.failover(runCtx, logger, inst, state, err)
		e.spans.EndSpanWithError(runSpan, err)
		return
	}

	stepCount := 0
	for ; idx < len(e.def.Steps); idx++ {
		step := e.def.Steps[idx]
		stepLogger := observability.EnrichLogger(e.logger, inst.Workflow, inst.ID, step.Name)

		next, err := e.runStep(runCtx, stepLogger, step, state)
		if err != nil {
			// Engine shutdown is not a step failure: leave the instance at
			// its last committed state for Resume.
			if errors.Is(err, context.Canceled) && e.base.Err() != nil {
				e.spans.EndSpanWithError(runSpan, err)
				return
			}
			e.failover(runCtx, stepLogger, inst, state, err)
			e.spans.EndSpanWithError(runSpan, err)
			e.metrics.RecordWorkflowRun(runCtx, e.def.Name, false, time.Duration(done())*time.Millisecond)
			return
		}
		state = next
		stepCount++

		// Commit the transition before the next step begins.
		inst, err = e.commit(runCtx, stepLogger, inst, state, step, idx)
		if err != nil {
			// The store is the single source of truth; without a committed
			// transition the instance must not advance. Resume retries it.
			observability.LogPersistError(stepLogger, inst.ID, step.Name, err)
			e.spans.EndSpanWithError(runSpan, err)
			return
		}
	}

	durationMs := done()
	observability.LogWorkflowComplete(e.logger, inst.Workflow, inst.ID, durationMs, stepCount)
	e.metrics.RecordWorkflowRun(runCtx, e.def.Name, true, time.Duration(durationMs)*time.Millisecond)
	e.spans.EndSpanWithError(runSpan, nil)
}

// runStep executes one step with its timeout and retry budget.
func (e *Engine[S]) runStep(ctx context.Context, logger *slog.Logger, step Step[S], state S) (S, error) {
	observability.LogStepStart(logger, step.Name)

	attempt := 0
	var lastErr error
	result := faults.WithRetryContext(ctx, e.def.Retry, func(ctx context.Context) (S, error) {
		attempt++
		if attempt > 1 {
			observability.LogStepRetry(logger, step.Name, attempt, lastErr)
			e.metrics.RecordStepRetry(ctx, step.Name)
		}

		out, err := e.executeOnce(ctx, step, state)
		if err != nil {
			lastErr = err
		}
		return out, err
	})

	if result.Err != nil {
		return state, &faults.StepFailureError{Step: step.Name, Attempt: attempt, Err: result.Err}
	}
	return result.Value, nil
}

// executeOnce runs a single step attempt with timeout, tracing, metrics,
// and panic recovery.
func (e *Engine[S]) executeOnce(ctx context.Context, step Step[S], state S) (out S, err error) {
	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	tracingCtx, span := e.spans.StartStepSpan(ctx, step.Name)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = state
			err = fmt.Errorf("step %s panicked: %v\n%s", step.Name, r, debug.Stack())
		}
		e.metrics.RecordStepExecution(tracingCtx, step.Name, time.Since(start), err)
		e.spans.EndSpanWithError(span, err)
	}()

	out, err = step.Run(stepCtx, state)
	if err != nil {
		// The call is abandoned on timeout; the remote side may still be
		// working, which is why downstream commands must be idempotent.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return state, &faults.TimeoutError{
				Operation: step.Name,
				Duration:  step.Timeout.String(),
			}
		}
		return state, err
	}
	return out, nil
}

// commit durably persists a step's state transition.
func (e *Engine[S]) commit(ctx context.Context, logger *slog.Logger, inst Instance, state S, step Step[S], idx int) (Instance, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return inst, fmt.Errorf("serialize state: %w", err)
	}

	inst.State = data
	if step.Status != "" {
		inst.Status = step.Status
	}
	if idx+1 < len(e.def.Steps) {
		inst.Step = e.def.Steps[idx+1].Name
	} else {
		inst.Step = ""
	}

	if err := e.store.Update(ctx, inst); err != nil {
		return inst, err
	}

	observability.LogPersist(logger, inst.ID, step.Name, len(data))
	e.metrics.RecordPersist(ctx, step.Name, int64(len(data)))
	return inst, nil
}

// failover runs the definition's failover step and commits the terminal
// ERROR state. The failure detail is logged, never returned to the caller
// of Start.
func (e *Engine[S]) failover(ctx context.Context, logger *slog.Logger, inst Instance, state S, cause error) {
	observability.LogWorkflowFailover(logger, inst.Workflow, inst.ID, inst.Step, cause)

	if e.def.OnFailure != nil {
		e.def.OnFailure(ctx, state)
	}

	inst.Status = StatusError
	inst.Step = ""
	if err := e.store.Update(ctx, inst); err != nil {
		observability.LogPersistError(logger, inst.ID, "error", err)
	}
}

// stepIndex returns the index of the named step, or -1 if unknown.
func (e *Engine[S]) stepIndex(name string) int {
	for i, step := range e.def.Steps {
		if step.Name == name {
			return i
		}
	}
	return -1
}
