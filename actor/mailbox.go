package actor

import (
	"iter"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Mailbox is the message queue of an actor. It has two lanes: system messages
// are always popped before user messages. Both lanes are FIFO and unbounded,
// so pushing never blocks a sender.
type Mailbox interface {
	// PushSystem appends a system message. Returns false if the mailbox
	// is closed.
	PushSystem(msg SystemMessage) bool

	// PushUser appends a user message. Returns false if the mailbox is
	// closed.
	PushUser(env Envelope) bool

	// Pop removes the next item. System messages come first; user
	// messages are only considered if allowUser is set. The second return
	// value is false if nothing could be popped.
	Pop(allowUser bool) (fn.Either[SystemMessage, Envelope], bool)

	// Len returns the number of pending system and user messages.
	Len() (int, int)

	// Close closes the mailbox, preventing new messages from being pushed.
	// Remaining user messages can still be consumed via Drain.
	Close()

	// IsClosed returns true if the mailbox has been closed.
	IsClosed() bool

	// Drain returns an iterator that yields and removes all remaining
	// user messages of a closed mailbox.
	Drain() iter.Seq[Envelope]
}

// priorityMailbox is the default Mailbox implementation.
type priorityMailbox struct {
	// mu guards every field below.
	mu sync.Mutex

	system *fn.List[SystemMessage]
	user   *fn.List[Envelope]
	closed bool
}

// A compile time check to ensure priorityMailbox implements the Mailbox
// interface.
var _ Mailbox = (*priorityMailbox)(nil)

// newPriorityMailbox creates an empty two lane mailbox.
func newPriorityMailbox() *priorityMailbox {
	return &priorityMailbox{
		system: fn.NewList[SystemMessage](),
		user:   fn.NewList[Envelope](),
	}
}

// PushSystem implements Mailbox.PushSystem.
func (m *priorityMailbox) PushSystem(msg SystemMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.system.PushBack(msg)

	return true
}

// PushUser implements Mailbox.PushUser.
func (m *priorityMailbox) PushUser(env Envelope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.user.PushBack(env)

	return true
}

// Pop implements Mailbox.Pop.
func (m *priorityMailbox) Pop(
	allowUser bool) (fn.Either[SystemMessage, Envelope], bool) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if front := m.system.Front(); front != nil {
		msg := front.Value
		m.system.Remove(front)

		return fn.NewLeft[SystemMessage, Envelope](msg), true
	}

	if front := m.user.Front(); allowUser && front != nil {
		env := front.Value
		m.user.Remove(front)

		return fn.NewRight[SystemMessage](env), true
	}

	return fn.Either[SystemMessage, Envelope]{}, false
}

// Len implements Mailbox.Len.
func (m *priorityMailbox) Len() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.system.Len(), m.user.Len()
}

// Close implements Mailbox.Close. Pending system messages are discarded,
// since there is no actor left to act on them.
func (m *priorityMailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.system = fn.NewList[SystemMessage]()
}

// IsClosed implements Mailbox.IsClosed.
func (m *priorityMailbox) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Drain implements Mailbox.Drain.
func (m *priorityMailbox) Drain() iter.Seq[Envelope] {
	return func(yield func(Envelope) bool) {
		for {
			m.mu.Lock()
			if !m.closed {
				m.mu.Unlock()
				return
			}

			front := m.user.Front()
			if front == nil {
				m.mu.Unlock()
				return
			}
			env := front.Value
			m.user.Remove(front)
			m.mu.Unlock()

			if !yield(env) {
				return
			}
		}
	}
}
