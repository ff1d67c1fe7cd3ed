package actor

import (
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// FutureState is the state of a Future. The set of states is closed:
// Uncompleted, Computing, Terminated and Extracted.
type FutureState interface {
	futureState()
}

// Uncompleted is the state of a future that holds no value yet. Steps
// applied in this state are queued.
type Uncompleted struct{}

// Computing is the state of a future that holds a value.
type Computing struct {
	// Value is the value currently held by the future.
	Value any
}

// Terminated is the final state of a future whose computation ended without
// an extractable result.
type Terminated struct{}

// Extracted is the final state of a future whose value has been removed.
type Extracted struct{}

func (Uncompleted) futureState() {}
func (Computing) futureState()   {}
func (Terminated) futureState()  {}
func (Extracted) futureState()   {}

// isFinal returns true for the states a future never leaves.
func isFinal(state FutureState) bool {
	switch state.(type) {
	case Terminated, Extracted:
		return true
	default:
		return false
	}
}

// FutureStep transforms the value of a future. It returns the next state:
// Computing with a new value to keep the computation going, or one of the
// final states. Returning Uncompleted is a protocol violation.
//
// Steps run while the future is locked, so they must not call back into the
// same future synchronously. Sending messages is fine.
type FutureStep func(value any, ctx *Context) FutureState

// StepAbort is told that the step it belongs to will never run, because
// the future reached a final state first. Like steps, it runs while the
// future is locked.
type StepAbort func(err error)

// queuedStep is a step waiting for the future to compute.
type queuedStep struct {
	run   FutureStep
	abort StepAbort
}

// Future is the state machine behind the ask pattern: a placeholder for a
// value that arrives later as a message, together with the transformation
// steps waiting on it.
type Future struct {
	mu      sync.Mutex
	state   FutureState
	pending *fn.List[queuedStep]
}

// NewFuture creates a future in the Uncompleted state.
func NewFuture() *Future {
	return &Future{
		state:   Uncompleted{},
		pending: fn.NewList[queuedStep](),
	}
}

// State returns the current state.
func (f *Future) State() FutureState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// Done returns true once the future reached a final state.
func (f *Future) Done() bool {
	return isFinal(f.State())
}

// Complete hands value to the future and runs the queued steps in the order
// they were applied. Completing a future that left the Uncompleted state
// fails with ErrFutureCompleted and does not touch the held value.
func (f *Future) Complete(value any, ctx *Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.state.(Uncompleted); !ok {
		return fmt.Errorf("%w: state %T", ErrFutureCompleted, f.state)
	}
	f.state = Computing{Value: value}

	return f.runPending(ctx)
}

// Apply adds a transformation step. On an Uncompleted future the step is
// queued; on a Computing future it runs right away. Final futures reject
// new steps with ErrFutureTerminated.
func (f *Future) Apply(step FutureStep, ctx *Context) error {
	return f.apply(step, nil, ctx)
}

// apply is Apply with an optional abort callback, which is called with
// ErrFutureTerminated if step is rejected or dropped without running.
func (f *Future) apply(step FutureStep, abort StepAbort, ctx *Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if isFinal(f.state) {
		err := fmt.Errorf("%w: state %T", ErrFutureTerminated, f.state)
		if abort != nil {
			abort(err)
		}

		return err
	}

	f.pending.PushBack(queuedStep{run: step, abort: abort})
	if _, ok := f.state.(Uncompleted); ok {
		return nil
	}

	return f.runPending(ctx)
}

// Extract permanently removes the value of the future. An Uncompleted future
// yields None and its queued steps are aborted. Extracting from a final
// future fails with ErrFutureTerminated.
func (f *Future) Extract() (fn.Option[any], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch state := f.state.(type) {
	case Uncompleted:
		f.state = Extracted{}
		f.abortPending()

		return fn.None[any](), nil

	case Computing:
		f.state = Extracted{}
		return fn.Some(state.Value), nil

	default:
		return fn.None[any](), fmt.Errorf("%w: state %T",
			ErrFutureTerminated, f.state)
	}
}

// runPending runs queued steps while the future is computing. It must be
// called with the lock held.
func (f *Future) runPending(ctx *Context) error {
	var err error
	for f.pending.Len() > 0 {
		computing, ok := f.state.(Computing)
		if !ok {
			break
		}

		front := f.pending.Front()
		step := front.Value
		f.pending.Remove(front)

		next := step.run(computing.Value, ctx)
		if _, ok := next.(Uncompleted); ok || next == nil {
			f.state = Terminated{}
			err = fmt.Errorf("%w: %T", ErrInvalidStepState, next)

			break
		}
		f.state = next
	}

	if isFinal(f.state) {
		f.abortPending()
	}

	return err
}

// abortPending drops the steps left behind a final state and tells their
// abort callbacks. It must be called with the lock held.
func (f *Future) abortPending() {
	for f.pending.Len() > 0 {
		front := f.pending.Front()
		step := front.Value
		f.pending.Remove(front)

		if step.abort != nil {
			step.abort(fmt.Errorf("%w: state %T",
				ErrFutureTerminated, f.state))
		}
	}
}

// applyStep is the internal message asking a future actor to apply a step.
// A non-nil abort learns about steps that never run.
type applyStep struct {
	step  FutureStep
	abort StepAbort
}

// futureActor exposes a Future as an actor. Any payload other than an
// internal step request completes the future. It never fails: protocol
// violations are logged, since a restart would lose the held value.
type futureActor struct {
	future *Future
}

// newFutureActor builds the actor around future. Restarts build a new actor
// around the same future.
func newFutureActor(future *Future) Actor {
	return &futureActor{future: future}
}

// Receive implements Actor.
func (a *futureActor) Receive(ctx *Context, payload any) error {
	var err error
	switch msg := payload.(type) {
	case *applyStep:
		err = a.future.apply(msg.step, msg.abort, ctx)

	default:
		err = a.future.Complete(payload, ctx)
	}

	if err != nil {
		ctx.System().metrics.futureViolations.Inc()
		ctx.Log().Warnf("Future protocol violation by %v: %v",
			ctx.Sender(), err)
	}

	if a.future.Done() {
		ctx.KillMe()
	}

	return nil
}
