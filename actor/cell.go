package actor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btclog/v2"
)

// CellState is the supervision state of an actor.
type CellState uint32

const (
	// CellCreated is the state of a cell that has not processed its Start
	// message yet.
	CellCreated CellState = iota

	// CellRunning is the state of a cell that delivers user messages.
	CellRunning

	// CellFailed is the state of a cell whose actor failed. User messages
	// stay queued until the supervisor restarts it.
	CellFailed

	// CellRestarting is the state of a cell that is rebuilding its actor.
	CellRestarting

	// CellStopped is the final state of a cell.
	CellStopped
)

// String returns a human readable name of the state.
func (s CellState) String() string {
	switch s {
	case CellCreated:
		return "Created"
	case CellRunning:
		return "Running"
	case CellFailed:
		return "Failed"
	case CellRestarting:
		return "Restarting"
	case CellStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("CellState(%d)", uint32(s))
	}
}

// cell hosts one actor: it owns the mailbox, the current actor instance and
// the Props to rebuild it, and forms the fault boundary around user code.
type cell struct {
	sys    *System
	props  Props
	ref    *Ref
	parent *Ref
	log    btclog.Logger

	// logCtx carries the actor path for structured log calls.
	logCtx context.Context

	// future is set if the cell hosts a Future.
	future *Future

	mailbox Mailbox

	// scheduled is set while the cell is handed to the scheduler, so a
	// cell is never scheduled twice at once.
	scheduled atomic.Bool

	state atomic.Uint32

	// processMu is held for the handling of exactly one mailbox item. The
	// fields below it are only accessed while holding it.
	processMu sync.Mutex
	actor     Actor
	failures  []time.Time

	childMu  sync.Mutex
	children map[string]*Ref
}

// newCell creates a cell in the Created state. The returned cell is not
// registered nor started.
func newCell(sys *System, props Props, path *Path, parent *Ref,
	future *Future) *cell {

	c := &cell{
		sys:      sys,
		props:    props,
		parent:   parent,
		future:   future,
		mailbox:  newPriorityMailbox(),
		children: make(map[string]*Ref),
	}
	c.ref = &Ref{target: c, path: path}
	c.log = log.WithPrefix(fmt.Sprintf("Actor(%v):", path))
	c.logCtx = btclog.WithCtx(context.Background(), "actor", path.String())

	return c
}

// State returns the current supervision state.
func (c *cell) State() CellState {
	return CellState(c.state.Load())
}

// receiveSystemMessage enqueues a system message and makes the cell
// runnable.
func (c *cell) receiveSystemMessage(msg SystemMessage) error {
	if !c.mailbox.PushSystem(msg) {
		return fmt.Errorf("%w: %v", ErrActorStopped, c.ref.path)
	}
	c.schedule()

	return nil
}

// receive enqueues a user message and makes the cell runnable.
func (c *cell) receive(env Envelope) error {
	if !c.mailbox.PushUser(env) {
		c.sys.deadLetter(c.ref.path, env)

		return fmt.Errorf("%w: %v", ErrActorStopped, c.ref.path)
	}

	c.log.Tracef("Enqueued message: %v", spewLogClosure(env.Payload))

	c.schedule()

	return nil
}

// runnable returns true if the cell has a mailbox item it may process now.
func (c *cell) runnable() bool {
	system, user := c.mailbox.Len()
	if system > 0 {
		return true
	}

	return user > 0 && c.State() == CellRunning
}

// schedule hands the cell to the scheduler unless it is already scheduled
// or has nothing it may process.
func (c *cell) schedule() {
	if !c.runnable() {
		return
	}

	if !c.scheduled.CompareAndSwap(false, true) {
		return
	}

	if err := c.sys.scheduler.Schedule(c.ref); err != nil {
		c.scheduled.Store(false)
		c.log.Debugf("Unable to schedule: %v", err)
	}
}

// handle processes one mailbox item. System messages come first; user
// messages are only popped while the actor is running.
func (c *cell) handle() error {
	c.processMu.Lock()
	item, ok := c.mailbox.Pop(c.State() == CellRunning)
	if ok {
		item.WhenLeft(c.processSystem)
		item.WhenRight(c.processUser)
	}
	c.processMu.Unlock()

	// Work pushed while we were busy did not schedule us, so check again
	// once the flag is cleared.
	c.scheduled.Store(false)
	c.schedule()

	return nil
}

// processSystem handles a lifecycle message. It must be called with
// processMu held.
func (c *cell) processSystem(msg SystemMessage) {
	switch m := msg.(type) {
	case Start:
		c.start()

	case Restart:
		c.restart()

	case Failure:
		c.superviseChild(m)

	case Terminate:
		c.stop()
	}
}

// processUser delivers one user message to the actor. It must be called with
// processMu held.
func (c *cell) processUser(env Envelope) {
	ctx := newContext(c, env.Sender)
	err := c.guard(func() error {
		return c.actor.Receive(ctx, env.Payload)
	})
	if err == nil {
		err = ctx.deliveryErr
	}

	c.sys.metrics.delivered.Inc()

	if err != nil {
		c.log.Debugf("Failed handling message: %v",
			spewLogClosure(env.Payload))

		c.fail(err)
	}
}

// start builds the actor and runs its PreStart hook.
func (c *cell) start() {
	if c.State() != CellCreated {
		return
	}

	err := c.guard(func() error {
		c.actor = c.props.Produce()
		c.state.Store(uint32(CellRunning))

		starter, ok := c.actor.(PreStarter)
		if !ok {
			return nil
		}

		return starter.PreStart(newContext(c, c.sys.root))
	})
	if err != nil {
		c.fail(fmt.Errorf("pre start: %w", err))
		return
	}

	c.log.Debugf("Actor started")
}

// restart rebuilds the actor from its Props and runs its PostRestart hook.
// Restarts of a cell that is not failed are ignored.
func (c *cell) restart() {
	if c.State() != CellFailed {
		c.log.Debugf("Ignoring restart in state %v", c.State())
		return
	}
	c.state.Store(uint32(CellRestarting))

	err := c.guard(func() error {
		c.actor = c.props.Produce()
		c.state.Store(uint32(CellRunning))

		restarter, ok := c.actor.(PostRestarter)
		if !ok {
			return nil
		}

		return restarter.PostRestart(newContext(c, c.sys.root))
	})

	c.sys.metrics.restarts.Inc()

	if err != nil {
		c.fail(fmt.Errorf("post restart: %w", err))
		return
	}

	c.log.Debugf("Actor restarted")
}

// fail moves the cell to Failed and reports the failure to the supervisor.
// If the actor failed too often within the restart window it is stopped
// instead.
func (c *cell) fail(reason error) {
	c.state.Store(uint32(CellFailed))
	c.sys.metrics.failures.Inc()

	now := c.sys.clock.Now()
	if c.restartLimitHit(now) {
		reason = fmt.Errorf("%w: %w", ErrRestartLimit, reason)
		c.sys.recordFailure(c.ref.path, reason, now)

		c.log.ErrorS(c.logCtx, "Actor stopped after too many failures",
			reason)

		c.stop()

		return
	}
	c.sys.recordFailure(c.ref.path, reason, now)

	c.log.WarnS(c.logCtx, "Actor failed", reason,
		"supervisor", c.parent.String())

	err := c.parent.ReceiveSystemMessage(Failure{
		Child:  c.ref,
		Reason: reason,
	})
	if err != nil {
		c.log.Errorf("Unable to report failure: %v", err)
		c.stop()
	}
}

// restartLimitHit records a failure at now and returns true if the cell
// failed more than the configured number of times within the restart
// window.
func (c *cell) restartLimitHit(now time.Time) bool {
	maxRestarts := c.sys.cfg.MaxRestarts
	if maxRestarts <= 0 {
		return false
	}

	cutoff := now.Add(-c.sys.cfg.RestartWindow)
	recent := c.failures[:0]
	for _, t := range c.failures {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	c.failures = append(recent, now)

	return len(c.failures) > maxRestarts
}

// superviseChild answers a child failure with a restart.
func (c *cell) superviseChild(failure Failure) {
	c.log.Debugf("Restarting child %v after: %v", failure.Child,
		failure.Reason)

	err := failure.Child.ReceiveSystemMessage(Restart{})
	if err != nil {
		c.log.Debugf("Unable to restart child %v: %v", failure.Child,
			err)
	}
}

// stop closes the mailbox, hands pending messages to the dead letters,
// stops all children and removes the cell from the registry. Stopping twice
// is a no-op.
func (c *cell) stop() {
	if c.State() == CellStopped {
		return
	}
	c.state.Store(uint32(CellStopped))

	c.mailbox.Close()
	for env := range c.mailbox.Drain() {
		c.sys.deadLetter(c.ref.path, env)
	}

	for _, child := range c.takeChildren() {
		if err := child.ReceiveSystemMessage(Terminate{}); err != nil {
			c.log.Tracef("Child %v already stopped", child)
		}
	}

	c.parent.localCell().WhenSome(func(parent *cell) {
		parent.removeChild(c.ref)
	})

	c.actor = nil
	c.sys.cellStopped(c.ref)

	c.log.Debugf("Actor stopped")
}

// guard runs f inside the fault boundary of the cell: a panic is recovered
// and returned as a *PanicError.
func (c *cell) guard(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Value: r,
				Stack: debug.Stack(),
			}
		}
	}()

	return f()
}

// addChild records a child supervised by this cell. A child spawned while
// the cell is stopping is terminated right away.
func (c *cell) addChild(child *Ref) {
	c.childMu.Lock()
	if c.State() != CellStopped {
		c.children[child.path.LogicalPath()] = child
		c.childMu.Unlock()

		return
	}
	c.childMu.Unlock()

	if err := child.ReceiveSystemMessage(Terminate{}); err != nil {
		c.log.Tracef("Child %v already stopped", child)
	}
}

// removeChild forgets a stopped child.
func (c *cell) removeChild(child *Ref) {
	c.childMu.Lock()
	defer c.childMu.Unlock()

	delete(c.children, child.path.LogicalPath())
}

// takeChildren removes and returns all children.
func (c *cell) takeChildren() []*Ref {
	c.childMu.Lock()
	defer c.childMu.Unlock()

	children := make([]*Ref, 0, len(c.children))
	for _, child := range c.children {
		children = append(children, child)
	}
	clear(c.children)

	return children
}
