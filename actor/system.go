package actor

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightninglabs/robots/build"
	"github.com/lightninglabs/robots/pool"
	"github.com/lightninglabs/robots/queue"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
	"golang.org/x/time/rate"
)

const (
	// userPath is the parent path of actors spawned through
	// System.ActorOf.
	userPath = "/user"

	// deadLetterWarnInterval is the minimum time between two warnings
	// about dead letters.
	deadLetterWarnInterval = 30 * time.Second
)

// FailureRecord describes one actor failure.
type FailureRecord struct {
	// Path is the path of the actor that failed.
	Path *Path

	// Reason is the error or recovered panic behind the failure.
	Reason error

	// Time is when the failure was recorded.
	Time time.Time
}

// System is an actor runtime: it owns the root registry, the scheduler that
// runs the actors, and the supporting state shared by all of them.
type System struct {
	name      string
	cfg       *Config
	clock     clock.Clock
	scheduler Scheduler
	metrics   *metrics

	registry *registry
	root     *Ref

	names atomic.Uint64

	// spawnMu orders spawns against Shutdown, so no actor is registered
	// once shutdown began.
	spawnMu      sync.RWMutex
	shuttingDown bool
	live         sync.WaitGroup
	shutdownOnce sync.Once

	failureMu sync.Mutex
	failures  *queue.CircularBuffer[FailureRecord]

	deadLetterMu   sync.RWMutex
	deadLetterSink fn.Option[*Ref]

	// deadLetterWarn throttles the warning about undelivered messages.
	deadLetterWarn  rate.Sometimes
	deadLetterCount atomic.Uint64
}

// NewSystem creates and starts an actor system. A nil cfg selects
// DefaultConfig.
func NewSystem(name string, cfg *Config) (*System, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	failures, err := queue.NewCircularBuffer[FailureRecord](
		cfg.FailureHistory,
	)
	if err != nil {
		return nil, err
	}

	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = newPoolScheduler(&pool.WorkerConfig{
			NumWorkers:    cfg.Workers,
			WorkerTimeout: cfg.WorkerTimeout,
		})
	}

	s := &System{
		name:      name,
		cfg:       cfg,
		clock:     cfg.Clock,
		scheduler: scheduler,
		metrics:   newMetrics(name, schedulerBacklog(scheduler)),
		failures:  failures,
	}
	s.deadLetterWarn.First = 1
	s.deadLetterWarn.Interval = deadLetterWarnInterval
	s.registry = newRegistry(s)
	s.root = s.registry.ref

	if cfg.Registerer != nil {
		if err := s.metrics.register(cfg.Registerer); err != nil {
			return nil, fmt.Errorf("unable to register metrics: %w",
				err)
		}
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("unable to start scheduler: %w", err)
	}

	log.Infof("Actor system %v started with %d workers (%v build, %v "+
		"logging)", name, cfg.Workers, build.Deployment,
		build.LoggingType)

	return s, nil
}

// Name returns the name of the system.
func (s *System) Name() string {
	return s.name
}

// Root returns the Ref of the root registry. Messages sent from outside any
// actor carry it as their sender.
func (s *System) Root() *Ref {
	return s.root
}

// ActorOf spawns a top level actor at /user/<name>, supervised by the root.
func (s *System) ActorOf(props Props, name string) (*Ref, error) {
	path, err := childPath(userPath, name)
	if err != nil {
		return nil, err
	}

	return s.spawn(props, path, s.root, nil)
}

// Lookup resolves a logical path to a live actor.
func (s *System) Lookup(path string) fn.Option[*Ref] {
	return s.registry.lookup(path)
}

// Tell sends payload to target with the root registry as sender.
func (s *System) Tell(target *Ref, payload any) error {
	return target.Receive(payload, s.root)
}

// RecentFailures returns the most recent failure records, oldest first.
func (s *System) RecentFailures() []FailureRecord {
	s.failureMu.Lock()
	defer s.failureMu.Unlock()

	return s.failures.List()
}

// FailureCount returns the number of failures recorded since the system
// started, including those that dropped out of RecentFailures.
func (s *System) FailureCount() int {
	s.failureMu.Lock()
	defer s.failureMu.Unlock()

	return s.failures.Total()
}

// LastFailure returns the most recent failure record, if any.
func (s *System) LastFailure() fn.Option[FailureRecord] {
	s.failureMu.Lock()
	defer s.failureMu.Unlock()

	return s.failures.Latest()
}

// SubscribeDeadLetters makes ref receive a DeadLetter for every message that
// could not be delivered. Passing nil removes the subscriber.
func (s *System) SubscribeDeadLetters(ref *Ref) {
	s.deadLetterMu.Lock()
	defer s.deadLetterMu.Unlock()

	if ref == nil {
		s.deadLetterSink = fn.None[*Ref]()
		return
	}
	s.deadLetterSink = fn.Some(ref)
}

// Shutdown stops every actor, waits up to the configured timeout for them to
// finish and stops the scheduler. Messages still queued end up in the dead
// letters. Spawning fails with ErrSystemShutdown afterwards.
func (s *System) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown()
	})

	return err
}

// shutdown does the work of Shutdown.
func (s *System) shutdown() error {
	s.spawnMu.Lock()
	s.shuttingDown = true
	s.spawnMu.Unlock()

	refs := s.registry.refs()
	log.Infof("Shutting down actor system %v with %d actors", s.name,
		len(refs))

	for _, ref := range refs {
		if err := ref.ReceiveSystemMessage(Terminate{}); err != nil {
			log.Tracef("Actor %v already stopped", ref)
		}
	}

	stopped := make(chan struct{})
	go func() {
		s.live.Wait()
		close(stopped)
	}()

	var waitErr error
	select {
	case <-stopped:
	case <-s.clock.TickAfter(s.cfg.ShutdownTimeout):
		waitErr = fmt.Errorf("%w: %d actors still running after %v",
			ErrSystemShutdown, len(s.registry.refs()),
			s.cfg.ShutdownTimeout)

		log.Warnf("Shutdown of %v: %v", s.name, waitErr)
	}

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("unable to stop scheduler: %w", err)
	}

	if s.cfg.Registerer != nil {
		s.metrics.unregister(s.cfg.Registerer)
	}

	log.Infof("Actor system %v stopped", s.name)

	return waitErr
}

// spawn creates, registers and starts a cell at path.
func (s *System) spawn(props Props, path *Path, parent *Ref,
	future *Future) (*Ref, error) {

	s.spawnMu.RLock()
	defer s.spawnMu.RUnlock()

	if s.shuttingDown {
		return nil, fmt.Errorf("%w: spawning %v", ErrSystemShutdown, path)
	}

	c := newCell(s, props, path, parent, future)
	if err := s.registry.register(c.ref); err != nil {
		return nil, err
	}

	s.live.Add(1)
	s.metrics.liveActors.Inc()

	if err := c.receiveSystemMessage(Start{}); err != nil {
		return nil, err
	}

	log.Debugf("Spawned actor %v", path)

	return c.ref, nil
}

// cellStopped is called once by every cell when it stops.
func (s *System) cellStopped(ref *Ref) {
	s.registry.unregister(ref)
	s.metrics.liveActors.Dec()
	s.live.Done()
}

// nextName returns a unique name starting with prefix.
func (s *System) nextName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, s.names.Add(1))
}

// recordFailure adds a failure record.
func (s *System) recordFailure(path *Path, reason error, at time.Time) {
	s.failureMu.Lock()
	defer s.failureMu.Unlock()

	s.failures.Add(FailureRecord{
		Path:   path,
		Reason: reason,
		Time:   at,
	})
}

// deadLetter records a message that could not be delivered to recipient
// and forwards it to the dead letter subscriber, if any. A future step that
// never reached its future is aborted.
func (s *System) deadLetter(recipient *Path, env Envelope) {
	if step, ok := env.Payload.(*applyStep); ok && step.abort != nil {
		step.abort(fmt.Errorf("%w: %v not reachable",
			ErrFutureTerminated, recipient))
	}

	s.metrics.deadLetters.Inc()
	count := s.deadLetterCount.Add(1)

	log.Debugf("Dead letter for %v from %v: %v", recipient, env.Sender,
		spewLogClosure(env.Payload))

	s.deadLetterWarn.Do(func() {
		log.Warnf("Undelivered messages in system %v, %v so far", s.name,
			count)
	})

	s.deadLetterMu.RLock()
	sink := s.deadLetterSink
	s.deadLetterMu.RUnlock()

	sink.WhenSome(func(ref *Ref) {
		// Letters for the subscriber itself are not forwarded again.
		if ref.path.Equal(recipient) {
			return
		}

		err := ref.Receive(DeadLetter{
			Recipient: recipient,
			Envelope:  env,
		}, s.root)
		if err != nil {
			log.Debugf("Unable to forward dead letter: %v", err)
		}
	})
}

// childPath derives the path of an actor called name below parent. Names
// must be non-empty and must not contain a slash.
func childPath(parent, name string) (*Path, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return NewLocalPath(parent).Child(name)
}
