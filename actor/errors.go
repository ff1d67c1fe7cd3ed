package actor

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrDistantDelivery is returned when a message is handed to a Ref
	// pointing at an actor in another process. Network transport is not
	// implemented, so such deliveries are rejected rather than dropped.
	ErrDistantDelivery = errors.New("cannot deliver to a distant actor")

	// ErrDistantChild is returned when a child path is derived from a
	// distant path. Actors are always created locally.
	ErrDistantChild = errors.New("cannot create a child of a distant " +
		"actor path")

	// ErrActorStopped is returned when a message is sent to an actor that
	// has already stopped. The message is routed to the dead letters.
	ErrActorStopped = errors.New("actor stopped")

	// ErrNameTaken is returned when an actor is spawned at a path that is
	// already registered.
	ErrNameTaken = errors.New("actor path already in use")

	// ErrInvalidName is returned when an actor name is empty or contains a
	// path separator.
	ErrInvalidName = errors.New("invalid actor name")

	// ErrSystemShutdown is returned when an operation is attempted on a
	// system that is shutting down.
	ErrSystemShutdown = errors.New("actor system shutting down")

	// ErrNoActorsAvailable is returned when a router cannot resolve any of
	// its paths to a live actor.
	ErrNoActorsAvailable = errors.New("no actors available for router")

	// ErrRestartLimit is recorded when an actor failed more often than its
	// restart budget allows and was stopped instead of restarted.
	ErrRestartLimit = errors.New("actor restart limit reached")

	// ErrFutureCompleted is returned when a future that already holds a
	// value is completed again.
	ErrFutureCompleted = errors.New("future already completed")

	// ErrFutureTerminated is returned when a step is applied to, or a
	// value extracted from, a future that has terminated or been
	// extracted.
	ErrFutureTerminated = errors.New("future terminated")

	// ErrInvalidStepState is returned when a future step returns a state
	// that a computation cannot move to, such as Uncompleted.
	ErrInvalidStepState = errors.New("future step returned an invalid " +
		"state")

	// ErrNotFuture is returned when a result is extracted from a Ref that
	// does not point at a future.
	ErrNotFuture = errors.New("ref is not a future")
)

// UnexpectedTypeError is returned when a payload does not have the type a
// receiver expected.
type UnexpectedTypeError struct {
	// Expected is the name of the type the receiver asked for.
	Expected string

	// Got is the name of the dynamic type of the payload.
	Got string
}

// newUnexpectedTypeError builds an UnexpectedTypeError for a payload that was
// expected to be a T.
func newUnexpectedTypeError[T any](payload any) *UnexpectedTypeError {
	return &UnexpectedTypeError{
		Expected: reflect.TypeFor[T]().String(),
		Got:      fmt.Sprintf("%T", payload),
	}
}

// Error implements the error interface.
func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("unexpected message type: expected %s, got %s",
		e.Expected, e.Got)
}

// PanicError wraps a value recovered from a panicking actor.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack at the point of recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("actor panicked: %v", e.Value)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
