package actor

import (
	"github.com/lightningnetwork/lnd/fn/v2"
)

// extracted carries the outcome of a future to its extractor.
type extracted[T any] struct {
	result fn.Result[T]
}

// extractorArgs is what an extractor is built from.
type extractorArgs[T any] struct {
	future *Ref
	result chan fn.Result[T]
}

// extractor bridges a future to code outside the actor world. On start it
// subscribes to the future; once the value arrives it hands it over on a
// one-shot channel and stops.
type extractor[T any] struct {
	args extractorArgs[T]
}

// newExtractor builds an extractor from its args.
func newExtractor[T any](args extractorArgs[T]) Actor {
	return &extractor[T]{args: args}
}

// PreStart subscribes the extractor to its future. A future that ends
// before the step runs, or is already gone, yields ErrFutureTerminated.
func (e *extractor[T]) PreStart(ctx *Context) error {
	self := ctx.ActorRef()
	logger := ctx.Log()
	terminated := func(reason error) {
		msg := extracted[T]{result: fn.Err[T](reason)}
		if err := self.Receive(msg, self); err != nil {
			logger.Tracef("Extractor stopped before abort: %v", err)
		}
	}

	ctx.Tell(e.args.future, &applyStep{
		step: func(value any, stepCtx *Context) FutureState {
			typed, err := Expect[T](value)
			if err != nil {
				stepCtx.Tell(self, extracted[T]{
					result: fn.Err[T](err),
				})

				return Terminated{}
			}

			stepCtx.Tell(self, extracted[T]{result: fn.Ok(typed)})

			return Extracted{}
		},
		abort: terminated,
	})

	return nil
}

// Receive implements Actor.
func (e *extractor[T]) Receive(ctx *Context, payload any) error {
	msg, err := Expect[extracted[T]](payload)
	if err != nil {
		ctx.Log().Debugf("Extractor ignoring message: %v", err)
		return nil
	}

	// The channel has room for exactly one result.
	select {
	case e.args.result <- msg.result:
	default:
	}
	ctx.KillMe()

	return nil
}
