package pool

import (
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrWorkerPoolExiting signals that a shutdown of the Worker has been
// requested.
var ErrWorkerPoolExiting = errors.New("worker pool exiting")

const (
	// DefaultWorkerTimeout is the default duration after which a worker
	// goroutine will exit to free up resources after having received no
	// newly submitted tasks.
	DefaultWorkerTimeout = 5 * time.Second

	// DefaultNumWorkers is the default maximum number of worker
	// goroutines.
	DefaultNumWorkers = 8
)

type (
	// Task is a unit of work run by one of the pool's goroutines.
	Task func()

	// WorkerConfig parameterizes the behavior of a Worker pool.
	WorkerConfig struct {
		// NumWorkers is the maximum number of workers the Worker pool
		// will permit to be allocated. Once the maximum number is
		// reached, newly submitted tasks wait in the backlog until an
		// existing worker goroutine picks them up.
		NumWorkers int

		// WorkerTimeout is the duration after which a worker goroutine
		// will exit after having received no newly submitted tasks.
		WorkerTimeout time.Duration
	}

	// Worker maintains a pool of goroutines that run submitted tasks.
	// Unlike a synchronous pool, Submit never waits for a worker: tasks
	// are queued in an unbounded backlog, so a running task may submit
	// further tasks without risk of deadlocking the pool.
	Worker struct {
		started sync.Once
		stopped sync.Once

		cfg *WorkerConfig

		// mu guards backlog.
		mu      sync.Mutex
		backlog *fn.List[Task]

		// wake is signalled whenever a task is added to the backlog.
		wake chan struct{}

		// work is a channel where tasks are handed to active worker
		// goroutines.
		work chan Task

		// workerSem is a channel-based sempahore that is used to limit
		// the total number of worker goroutines to the number
		// prescribed by the WorkerConfig.
		workerSem chan struct{}

		wg   sync.WaitGroup
		quit chan struct{}
	}
)

// NewWorker initializes a new Worker pool using the provided WorkerConfig.
// Zero values in the config are replaced with the package defaults.
func NewWorker(cfg *WorkerConfig) *Worker {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = DefaultNumWorkers
	}
	if cfg.WorkerTimeout <= 0 {
		cfg.WorkerTimeout = DefaultWorkerTimeout
	}

	return &Worker{
		cfg:       cfg,
		backlog:   fn.NewList[Task](),
		wake:      make(chan struct{}, 1),
		workerSem: make(chan struct{}, cfg.NumWorkers),
		work:      make(chan Task),
		quit:      make(chan struct{}),
	}
}

// Start safely spins up the Worker pool.
func (w *Worker) Start() error {
	w.started.Do(func() {
		log.Debugf("Starting worker pool with %d workers",
			w.cfg.NumWorkers)

		w.wg.Add(1)
		go w.requestHandler()
	})
	return nil
}

// Stop safely shuts down the Worker pool. Tasks that are still in the
// backlog are dropped, tasks that are already running are waited for.
func (w *Worker) Stop() error {
	w.stopped.Do(func() {
		close(w.quit)
		w.wg.Wait()

		w.mu.Lock()
		dropped := w.backlog.Len()
		w.backlog = fn.NewList[Task]()
		w.mu.Unlock()

		log.Debugf("Worker pool stopped, %d queued tasks dropped",
			dropped)
	})
	return nil
}

// Submit queues a task for execution. It never blocks on the availability of
// a worker. ErrWorkerPoolExiting is returned if a shutdown was requested.
func (w *Worker) Submit(task Task) error {
	select {
	case <-w.quit:
		return ErrWorkerPoolExiting
	default:
	}

	w.mu.Lock()
	w.backlog.PushBack(task)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	return nil
}

// Pending returns the number of tasks waiting for a worker.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.backlog.Len()
}

// nextTask pops the oldest task from the backlog.
func (w *Worker) nextTask() fn.Option[Task] {
	w.mu.Lock()
	defer w.mu.Unlock()

	front := w.backlog.Front()
	if front == nil {
		return fn.None[Task]()
	}

	task := front.Value
	w.backlog.Remove(front)

	return fn.Some(task)
}

// requestHandler hands queued tasks out by either allocating new worker
// goroutines, or by feeding a task to an already running worker goroutine.
func (w *Worker) requestHandler() {
	defer w.wg.Done()

	for {
		next := w.nextTask()
		if next.IsNone() {
			select {
			case <-w.wake:
				continue

			case <-w.quit:
				return
			}
		}

		task := next.UnsafeFromSome()

		select {

		// If we have not reached our maximum number of workers,
		// spawn one to process the task.
		case w.workerSem <- struct{}{}:
			w.wg.Add(1)
			go w.spawnWorker(task)

		// Otherwise, hand the task to any of the active workers.
		case w.work <- task:

		case <-w.quit:
			return
		}
	}
}

// spawnWorker is used when the Worker pool wishes to create a new worker
// goroutine. The worker will continue to process incoming tasks until the
// pool is shut down or no new tasks are received before the worker's timeout
// elapses.
//
// NOTE: This method MUST be run as a goroutine.
func (w *Worker) spawnWorker(task Task) {
	defer w.wg.Done()
	defer func() { <-w.workerSem }()

	runTask(task)

	// We'll use a timer to implement the worker timeouts, as this reduces
	// the number of total allocations that would otherwise be necessary
	// with time.After.
	var t *time.Timer
	for {
		select {

		// Process any new tasks that get submitted. We use a
		// non-blocking case first so that under high load we can spare
		// allocating a timeout.
		case task := <-w.work:
			runTask(task)
			continue

		case <-w.quit:
			return

		default:
		}

		// There were no new tasks that could be taken immediately
		// from the work channel. Initialize or reset the timeout, which
		// will fire if the worker doesn't receive a new task before
		// needing to exit.
		if t != nil {
			t.Reset(w.cfg.WorkerTimeout)
		} else {
			t = time.NewTimer(w.cfg.WorkerTimeout)
		}

		select {

		// Process any new tasks that get submitted.
		case task := <-w.work:
			runTask(task)

			// Since Go 1.23 a stopped timer never delivers a stale
			// tick, so there is nothing to drain.
			t.Stop()

		// The timeout has elapsed, meaning the worker did not receive
		// any new tasks. Exit to allow the worker to return and free
		// its resources.
		case <-t.C:
			return

		case <-w.quit:
			return
		}
	}
}

// runTask runs a single task. A panicking task must not take the worker
// goroutine, and with it the process, down.
func runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Worker task panicked: %v\n%s", r,
				debug.Stack())
		}
	}()

	task()
}
