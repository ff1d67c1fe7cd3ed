package actor

// Actor is the behavior an actor author implements. Receive is called once
// per user message, never concurrently for the same actor. The payload keeps
// its dynamic type; an actor may ignore payloads it does not understand.
//
// Returning an error, or panicking, marks the message as failed: the message
// is dropped and the actor is rebuilt from its Props by its supervisor.
type Actor interface {
	Receive(ctx *Context, payload any) error
}

// PreStarter is implemented by actors that need to run logic once before
// their first message, e.g. to subscribe to a future.
type PreStarter interface {
	PreStart(ctx *Context) error
}

// PostRestarter is implemented by actors that need to run logic on the fresh
// instance created after a supervised restart, before delivery resumes.
type PostRestarter interface {
	PostRestart(ctx *Context) error
}

// BaseActor can be embedded by actors that want explicit no-op lifecycle
// hooks.
type BaseActor struct{}

// PreStart does nothing.
func (BaseActor) PreStart(*Context) error {
	return nil
}

// PostRestart does nothing.
func (BaseActor) PostRestart(*Context) error {
	return nil
}

// ReceiveFunc adapts a plain function to the Actor interface.
type ReceiveFunc func(ctx *Context, payload any) error

// Receive calls f.
func (f ReceiveFunc) Receive(ctx *Context, payload any) error {
	return f(ctx, payload)
}

// Props is the build recipe of an actor: a constructor together with the
// argument captured for it. The cell keeps the Props so it can rebuild an
// identical actor after a crash.
type Props struct {
	produce func() Actor
}

// NewProps creates Props from a constructor and the argument it will be
// called with every time the actor is built.
func NewProps[A any](constructor func(A) Actor, arg A) Props {
	return Props{
		produce: func() Actor {
			return constructor(arg)
		},
	}
}

// PropsFromFunc creates Props from an argument-less constructor.
func PropsFromFunc(constructor func() Actor) Props {
	return Props{produce: constructor}
}

// Produce builds a fresh actor instance.
func (p Props) Produce() Actor {
	return p.produce()
}
