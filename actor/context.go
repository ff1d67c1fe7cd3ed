package actor

import (
	"errors"

	"github.com/btcsuite/btclog/v2"
)

// Context is handed to an actor for the duration of one message or lifecycle
// hook. It gives access to the sender of the message and lets the actor
// reply, spawn children, resolve paths and stop itself.
//
// A Context must not be retained or used from other goroutines once the
// call it was passed to has returned.
type Context struct {
	cell   *cell
	sender *Ref

	// deliveryErr is the first delivery failure that is a usage error,
	// e.g. telling a distant actor. The cell treats it as a failure of the
	// current message.
	deliveryErr error
}

// newContext creates the context for one call into the actor.
func newContext(c *cell, sender *Ref) *Context {
	return &Context{
		cell:   c,
		sender: sender,
	}
}

// Sender returns the Ref of the actor that sent the current message. Hooks,
// and messages sent from outside the actor world, report the root registry
// as their sender.
func (c *Context) Sender() *Ref {
	return c.sender
}

// ActorRef returns the Ref of the actor itself.
func (c *Context) ActorRef() *Ref {
	return c.cell.ref
}

// System returns the actor system the actor lives in.
func (c *Context) System() *System {
	return c.cell.sys
}

// Log returns the logger of the actor, prefixed with its path.
func (c *Context) Log() btclog.Logger {
	return c.cell.log
}

// Tell sends message to target with the current actor as sender. A message
// to a stopped actor ends up in the dead letters. Any other delivery error,
// such as telling a distant actor, fails the current message once the actor
// returns, which leads to a restart.
func (c *Context) Tell(target *Ref, message any) {
	err := target.Receive(message, c.cell.ref)
	switch {
	case err == nil:

	case errors.Is(err, ErrActorStopped):
		c.cell.log.Debugf("Told stopped actor %v", target)

	default:
		c.cell.log.Warnf("Unable to tell %v: %v", target, err)

		if c.deliveryErr == nil {
			c.deliveryErr = err
		}
	}
}

// KillMe stops the actor once its current message has been handled. Pending
// messages are handed to the dead letters.
func (c *Context) KillMe() {
	if err := c.cell.receiveSystemMessage(Terminate{}); err != nil {
		c.cell.log.Debugf("Kill requested on stopped actor: %v", err)
	}
}

// ActorOf spawns a child of the current actor. The child's path is derived
// from the current path and the current actor supervises it.
func (c *Context) ActorOf(props Props, name string) (*Ref, error) {
	path, err := childPath(c.cell.ref.path.LogicalPath(), name)
	if err != nil {
		return nil, err
	}

	child, err := c.cell.sys.spawn(props, path, c.cell.ref, nil)
	if err != nil {
		return nil, err
	}
	c.cell.addChild(child)

	return child, nil
}

// IdentifyActor asks the root registry to resolve a logical path. It returns
// a future that completes with an fn.Option[*Ref]: None if no actor is
// registered at path.
func (c *Context) IdentifyActor(path string) (*Ref, error) {
	return c.cell.sys.identify(path)
}

// ForwardResult subscribes dest to the result of a future. Once the future
// holds a value of type T, that value is sent to dest and the future is
// marked Extracted. A value of any other type ends the future with
// Terminated, and dest receives an *UnexpectedTypeError instead. If the
// future ends before the step runs, dest receives an error wrapping
// ErrFutureTerminated.
func ForwardResult[T any](ctx *Context, future, dest *Ref) {
	logger := ctx.Log()
	abort := func(reason error) {
		if err := dest.Receive(reason, future); err != nil {
			logger.Debugf("Unable to tell %v the future ended: %v",
				dest, err)
		}
	}

	ctx.Tell(future, &applyStep{
		step:  forwardStep[T](dest),
		abort: abort,
	})
}

// forwardStep builds the future step behind ForwardResult.
func forwardStep[T any](dest *Ref) FutureStep {
	return func(value any, ctx *Context) FutureState {
		typed, err := Expect[T](value)
		if err != nil {
			ctx.Tell(dest, err)
			return Terminated{}
		}

		ctx.Tell(dest, typed)

		return Extracted{}
	}
}
