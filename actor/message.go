package actor

// SystemMessage is a lifecycle control message. System messages are kept in
// their own mailbox lane and are always processed before pending user
// messages, which lets a restart preempt a backlog of user work.
//
// The set of system messages is closed.
type SystemMessage interface {
	systemMessage()
}

// Start is the first message every actor receives. It builds the actor from
// its Props and runs its PreStart hook.
type Start struct{}

// Restart rebuilds a failed actor from its Props and runs its PostRestart
// hook. The actor keeps its Path, Ref and pending mailbox.
type Restart struct{}

// Failure is sent to a supervisor when one of its children failed while
// handling a message.
type Failure struct {
	// Child is the actor that failed.
	Child *Ref

	// Reason is the error or recovered panic that caused the failure.
	Reason error
}

// Terminate stops the actor. Messages still in its mailbox are handed to the
// dead letters.
type Terminate struct{}

func (Start) systemMessage()     {}
func (Restart) systemMessage()   {}
func (Failure) systemMessage()   {}
func (Terminate) systemMessage() {}

// Envelope is a user message in transit: an opaque payload, owned by the
// receiver once it is enqueued, and the Ref of the actor that sent it so the
// receiver can reply.
type Envelope struct {
	// Payload is the message itself. It keeps its dynamic type so the
	// receiver can recover it with Expect or a type switch.
	Payload any

	// Sender is the Ref of the sending actor.
	Sender *Ref
}

// Expect performs the single type check a receiver needs to recover a typed
// payload. Instead of silently dropping a payload of the wrong type it
// returns an *UnexpectedTypeError.
func Expect[T any](payload any) (T, error) {
	msg, ok := payload.(T)
	if !ok {
		var zero T
		return zero, newUnexpectedTypeError[T](payload)
	}

	return msg, nil
}

// Identify asks the root registry to resolve a logical path. The registry
// replies to the sender with an fn.Option[*Ref], which is None if no actor is
// registered at that path.
type Identify struct {
	// Path is the logical path to resolve.
	Path string
}

// DeadLetter records a message that could not be delivered.
type DeadLetter struct {
	// Recipient is the path of the actor the message was meant for.
	Recipient *Path

	// Envelope is the undelivered message.
	Envelope Envelope
}
