package actor

import (
	"github.com/lightninglabs/robots/pool"
)

// Scheduler runs actors. A cell hands itself to Schedule whenever it has
// work; the scheduler must eventually call Handle on the Ref exactly once for
// each call to Schedule.
//
// Schedule is called from within message handlers, so it must never block.
type Scheduler interface {
	// Start starts the scheduler.
	Start() error

	// Schedule queues ref to process one mailbox item.
	Schedule(ref *Ref) error

	// Stop stops the scheduler. Queued work may be dropped.
	Stop() error
}

// poolScheduler is the default Scheduler, backed by a bounded worker pool
// with an unbounded backlog.
type poolScheduler struct {
	workers *pool.Worker
}

// A compile time check to ensure poolScheduler implements Scheduler.
var _ Scheduler = (*poolScheduler)(nil)

// newPoolScheduler creates a scheduler running on at most cfg.NumWorkers
// goroutines.
func newPoolScheduler(cfg *pool.WorkerConfig) *poolScheduler {
	return &poolScheduler{
		workers: pool.NewWorker(cfg),
	}
}

// Start implements Scheduler.
func (s *poolScheduler) Start() error {
	return s.workers.Start()
}

// Schedule implements Scheduler.
func (s *poolScheduler) Schedule(ref *Ref) error {
	return s.workers.Submit(func() {
		if err := ref.Handle(); err != nil {
			log.Errorf("Unable to handle %v: %v", ref, err)
		}
	})
}

// Stop implements Scheduler.
func (s *poolScheduler) Stop() error {
	return s.workers.Stop()
}

// Pending implements backlogReporter.
func (s *poolScheduler) Pending() int {
	return s.workers.Pending()
}

// backlogReporter is implemented by schedulers that can tell how many
// scheduled actors are waiting for a goroutine.
type backlogReporter interface {
	Pending() int
}

// schedulerBacklog returns a function reporting the backlog of scheduler,
// or zero if it does not track one.
func schedulerBacklog(scheduler Scheduler) func() float64 {
	reporter, ok := scheduler.(backlogReporter)
	if !ok {
		return func() float64 { return 0 }
	}

	return func() float64 {
		return float64(reporter.Pending())
	}
}
