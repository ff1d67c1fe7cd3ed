package actor

import (
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// refTarget is the closed set of things a Ref can point at: a local actor
// cell or the root registry.
type refTarget interface {
	// receiveSystemMessage enqueues a system message.
	receiveSystemMessage(msg SystemMessage) error

	// receive enqueues a user message.
	receive(env Envelope) error

	// handle processes one pending mailbox item.
	handle() error
}

// A compile time check to ensure both targets implement refTarget.
var (
	_ refTarget = (*cell)(nil)
	_ refTarget = (*registry)(nil)
)

// Ref is the only handle user code and the runtime hold to an actor. A Ref
// points at a local actor, at the root registry, or, for a distant actor, at
// nothing. Refs are cheap to copy around; doing so never duplicates actor
// state.
type Ref struct {
	// target is nil for distant actors.
	target refTarget

	path *Path
}

// NewDistantRef creates a Ref to an actor living in another process. Such a
// Ref can tell its path, but every delivery on it fails with
// ErrDistantDelivery.
func NewDistantRef(path *Path) *Ref {
	return &Ref{path: path}
}

// Path returns the shared path of the actor.
func (r *Ref) Path() *Path {
	return r.path
}

// IsDistant returns true if the Ref does not point at a local target.
func (r *Ref) IsDistant() bool {
	return r.target == nil
}

// String returns the path of the actor.
func (r *Ref) String() string {
	return r.path.String()
}

// ReceiveSystemMessage delivers a priority control message and makes the
// target eligible for scheduling.
func (r *Ref) ReceiveSystemMessage(msg SystemMessage) error {
	if r.target == nil {
		return fmt.Errorf("%w: system message for %v",
			ErrDistantDelivery, r.path)
	}

	return r.target.receiveSystemMessage(msg)
}

// Receive delivers a user message together with the Ref of its sender, so
// the receiver can reply without looking the sender up.
func (r *Ref) Receive(payload any, sender *Ref) error {
	if r.target == nil {
		return fmt.Errorf("%w: message for %v", ErrDistantDelivery,
			r.path)
	}

	return r.target.receive(Envelope{Payload: payload, Sender: sender})
}

// Handle makes the target process exactly one pending item of its mailbox.
// It is meant to be called by a Scheduler once per scheduled run; calling it
// on an empty mailbox does nothing.
func (r *Ref) Handle() error {
	if r.target == nil {
		return fmt.Errorf("%w: handle on %v", ErrDistantDelivery,
			r.path)
	}

	return r.target.handle()
}

// TellTo sends message to target with this Ref as the sender.
func (r *Ref) TellTo(target *Ref, message any) error {
	return target.Receive(message, r)
}

// future returns the future the Ref points at, if any.
func (r *Ref) future() fn.Option[*Future] {
	c, ok := r.target.(*cell)
	if !ok || c.future == nil {
		return fn.None[*Future]()
	}

	return fn.Some(c.future)
}

// localCell returns the local cell the Ref points at, if any.
func (r *Ref) localCell() fn.Option[*cell] {
	c, ok := r.target.(*cell)
	if !ok {
		return fn.None[*cell]()
	}

	return fn.Some(c)
}
