package actor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestMessageOrder checks that a single sender's messages are handled in the
// order they were sent.
func TestMessageOrder(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref := spawnStorage(t, sys, "storage")

	const numMessages = 1000
	for i := 1; i <= numMessages; i++ {
		require.NoError(t, sys.Tell(ref, setValue{Value: i}))
	}

	requireValue(t, sys, ref, numMessages)

	require.GreaterOrEqual(
		t, testutil.ToFloat64(sys.metrics.delivered),
		float64(numMessages+1),
	)
}

// sequenceArgs configures a sequenceChecker.
type sequenceArgs struct {
	senders int
	last    int
	result  chan bool
}

// sequenceChecker expects every sender to deliver setValue 1..last in
// increasing order. It reports false on the first value that does not
// increase for its sender and true once all senders reached last.
type sequenceChecker struct {
	args     sequenceArgs
	seen     map[string]int
	finished int
	reported bool
}

func newSequenceChecker(args sequenceArgs) Actor {
	return &sequenceChecker{
		args: args,
		seen: make(map[string]int),
	}
}

func (s *sequenceChecker) report(ok bool) {
	if s.reported {
		return
	}
	s.reported = true
	s.args.result <- ok
}

func (s *sequenceChecker) Receive(ctx *Context, payload any) error {
	msg, ok := payload.(setValue)
	if !ok {
		return nil
	}

	sender := ctx.Sender().Path().LogicalPath()
	if msg.Value <= s.seen[sender] {
		s.report(false)
		return nil
	}
	s.seen[sender] = msg.Value

	if msg.Value == s.args.last {
		s.finished++
		if s.finished == s.args.senders {
			s.report(true)
		}
	}

	return nil
}

// spawnSequenceChecker spawns a sequenceChecker for senders senders at
// /user/checker and returns it with its result channel.
func spawnSequenceChecker(t *testing.T, sys *System, senders,
	last int) (*Ref, chan bool) {

	t.Helper()

	result := make(chan bool, 1)
	ref, err := sys.ActorOf(NewProps(newSequenceChecker, sequenceArgs{
		senders: senders,
		last:    last,
		result:  result,
	}), "checker")
	require.NoError(t, err)

	return ref, result
}

// TestMessageOrderBetweenActors checks that messages one actor sends to
// another arrive in the order they were sent.
func TestMessageOrderBetweenActors(t *testing.T) {
	t.Parallel()

	const numMessages = 1000

	sys := newTestSystem(t)
	sender := spawnStorage(t, sys, "sender")
	checker, result := spawnSequenceChecker(t, sys, 1, numMessages)

	for i := 1; i <= numMessages; i++ {
		require.NoError(t, sender.TellTo(checker, setValue{Value: i}))
	}

	inOrder, err := fn.RecvOrTimeout(result, testTimeout)
	require.NoError(t, err)
	require.True(t, inOrder)
}

// TestMessageOrderConcurrentSenders checks that the order of each sender is
// kept when several senders tell the same actor concurrently.
func TestMessageOrderConcurrentSenders(t *testing.T) {
	t.Parallel()

	const (
		numSenders  = 8
		numMessages = 500
	)

	sys := newTestSystem(t)
	checker, result := spawnSequenceChecker(
		t, sys, numSenders, numMessages,
	)

	var eg errgroup.Group
	for i := 0; i < numSenders; i++ {
		sender := spawnStorage(t, sys, fmt.Sprintf("sender-%d", i))

		eg.Go(func() error {
			for v := 1; v <= numMessages; v++ {
				err := sender.TellTo(checker, setValue{Value: v})
				if err != nil {
					return err
				}
			}

			return nil
		})
	}
	require.NoError(t, eg.Wait())

	inOrder, err := fn.RecvOrTimeout(result, testTimeout)
	require.NoError(t, err)
	require.True(t, inOrder)
}

// TestRecoverFromPanic checks that a panicking actor is rebuilt from its
// props and keeps processing its mailbox.
func TestRecoverFromPanic(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref := spawnStorage(t, sys, "storage")

	require.NoError(t, sys.Tell(ref, setValue{Value: 5}))
	require.NoError(t, sys.Tell(ref, crash{}))

	// The fresh instance starts from zero.
	requireValue(t, sys, ref, 0)

	failures := sys.RecentFailures()
	require.Len(t, failures, 1)
	require.True(t, failures[0].Path.Equal(ref.Path()))

	var panicErr *PanicError
	require.ErrorAs(t, failures[0].Reason, &panicErr)
	require.Equal(t, "storage crashed", panicErr.Value)
	require.NotEmpty(t, panicErr.Stack)

	require.Equal(t, float64(1), testutil.ToFloat64(sys.metrics.restarts))

	// The Ref survives the restart.
	sys.Lookup("/user/storage").WhenSome(func(found *Ref) {
		require.Same(t, ref, found)
	})
}

// TestRecoverFromError checks that a returned error fails the message like a
// panic does.
func TestRecoverFromError(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref := spawnStorage(t, sys, "storage")

	require.NoError(t, sys.Tell(ref, setValue{Value: 7}))
	require.NoError(t, sys.Tell(ref, fail{}))
	requireValue(t, sys, ref, 0)

	failures := sys.RecentFailures()
	require.Len(t, failures, 1)
	require.ErrorIs(t, failures[0].Reason, errTestFailure)
}

// TestNameResolution checks that the root answers Identify for real and
// unknown paths.
func TestNameResolution(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref := spawnStorage(t, sys, "storage")

	ctx := testContext(t)

	found, err := AskFor[fn.Option[*Ref]](
		ctx, sys, sys.Root(), Identify{Path: "/user/storage"},
	)
	require.NoError(t, err)
	require.Equal(t, fn.Some(ref), found)

	missing, err := AskFor[fn.Option[*Ref]](
		ctx, sys, sys.Root(), Identify{Path: "/user/nobody"},
	)
	require.NoError(t, err)
	require.True(t, missing.IsNone())

	root, err := AskFor[fn.Option[*Ref]](
		ctx, sys, sys.Root(), Identify{Path: "/"},
	)
	require.NoError(t, err)
	require.Equal(t, fn.Some(sys.Root()), root)
}

// doubleAnswer replies twice to every message.
func doubleAnswer(ctx *Context, _ any) error {
	ctx.Tell(ctx.Sender(), 1)
	ctx.Tell(ctx.Sender(), 2)

	return nil
}

// TestDoubleAnswer checks that a second answer to a future is rejected
// without disturbing the first one.
func TestDoubleAnswer(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return ReceiveFunc(doubleAnswer)
	}), "double")
	require.NoError(t, err)

	value, err := AskFor[int](testContext(t), sys, ref, "question")
	require.NoError(t, err)
	require.Equal(t, 1, value)

	// The second answer either hit the already completed future or
	// arrived after it stopped.
	require.Eventually(t, func() bool {
		violations := testutil.ToFloat64(sys.metrics.futureViolations)
		dead := testutil.ToFloat64(sys.metrics.deadLetters)

		return violations+dead >= 1
	}, testTimeout, 10*time.Millisecond)

	// No future was restarted.
	require.Zero(t, testutil.ToFloat64(sys.metrics.restarts))
}

// TestAskTypeMismatch checks that a reply of the wrong type surfaces as an
// UnexpectedTypeError.
func TestAskTypeMismatch(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref := spawnStorage(t, sys, "storage")

	_, err := AskFor[string](testContext(t), sys, ref, getValue{})

	var typeErr *UnexpectedTypeError
	require.ErrorAs(t, err, &typeErr)
	require.Equal(t, "string", typeErr.Expected)
	require.Equal(t, "int", typeErr.Got)
}

// TestExtractResultWaitBounded checks that the caller's context bounds the
// wait without affecting the future.
func TestExtractResultWaitBounded(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)

	silent, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return ReceiveFunc(func(*Context, any) error {
			return nil
		})
	}), "silent")
	require.NoError(t, err)

	future, err := sys.Ask(silent, "anyone?", "silent-ask")
	require.NoError(t, err)

	ctx := testContext(t)
	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = ExtractResult[string](shortCtx, sys, future)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	f := future.future().UnsafeFromSome()
	require.Equal(t, Uncompleted{}, f.State())

	// A late answer still completes the future. The step installed by the
	// abandoned extractor then consumes the value.
	require.NoError(t, sys.Tell(future, "late"))
	require.Eventually(t, func() bool {
		return f.State() == Extracted{}
	}, testTimeout, 10*time.Millisecond)
	requireStopped(t, sys, "/system/silent-ask")
}

// TestExtractResultTwice checks that of two callers extracting the same
// future, one gets the value and the other learns the future ended.
func TestExtractResultTwice(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)

	silent, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return ReceiveFunc(func(*Context, any) error {
			return nil
		})
	}), "silent")
	require.NoError(t, err)

	future, err := sys.Ask(silent, "anyone?", "shared-ask")
	require.NoError(t, err)
	f := future.future().UnsafeFromSome()

	ctx := testContext(t)
	results := make(chan fn.Result[string], 2)
	for i := 0; i < 2; i++ {
		go func() {
			value, err := ExtractResult[string](ctx, sys, future)
			results <- fn.NewResult(value, err)
		}()
	}

	// Wait for both extractors to queue their step.
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()

		return f.pending.Len() == 2
	}, testTimeout, 10*time.Millisecond)

	require.NoError(t, sys.Tell(future, "answer"))

	var values []string
	var errs []error
	for i := 0; i < 2; i++ {
		res, err := fn.RecvOrTimeout(results, testTimeout)
		require.NoError(t, err)

		value, err := res.Unpack()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values = append(values, value)
	}

	require.Equal(t, []string{"answer"}, values)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrFutureTerminated)

	// A future that is already gone fails new extractions right away.
	requireStopped(t, sys, "/system/shared-ask")
	_, err = ExtractResult[string](ctx, sys, future)
	require.ErrorIs(t, err, ErrFutureTerminated)
}

// TestForwardResultAfterEnd checks that forwarding a future that already
// ended tells the destination so.
func TestForwardResultAfterEnd(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref := spawnStorage(t, sys, "storage")

	future, err := sys.Ask(ref, getValue{}, "ended-ask")
	require.NoError(t, err)
	value, err := ExtractResult[int](testContext(t), sys, future)
	require.NoError(t, err)
	require.Zero(t, value)
	requireStopped(t, sys, "/system/ended-ask")

	received := make(chan error, 1)
	forwarder, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return ReceiveFunc(func(ctx *Context, payload any) error {
			switch msg := payload.(type) {
			case string:
				ForwardResult[int](ctx, future, ctx.ActorRef())

			case error:
				received <- msg
			}

			return nil
		})
	}), "late-forwarder")
	require.NoError(t, err)
	require.NoError(t, sys.Tell(forwarder, "forward"))

	err, recvErr := fn.RecvOrTimeout(received, testTimeout)
	require.NoError(t, recvErr)
	require.ErrorIs(t, err, ErrFutureTerminated)
}

// TestExtractResultNotFuture checks that only futures can be extracted.
func TestExtractResultNotFuture(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref := spawnStorage(t, sys, "storage")

	_, err := ExtractResult[int](testContext(t), sys, ref)
	require.ErrorIs(t, err, ErrNotFuture)
}

// TestDistantDelivery checks that every delivery to a distant actor fails.
func TestDistantDelivery(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	distant := NewDistantRef(NewDistantPath("/user/far", "10.0.0.1:9735"))

	require.True(t, distant.IsDistant())
	require.ErrorIs(t, sys.Tell(distant, "hi"), ErrDistantDelivery)
	require.ErrorIs(
		t, distant.ReceiveSystemMessage(Start{}), ErrDistantDelivery,
	)
	require.ErrorIs(t, distant.Handle(), ErrDistantDelivery)

	_, err := sys.Ask(distant, "hi", "distant-ask")
	require.ErrorIs(t, err, ErrDistantDelivery)

	// The future of the failed ask is gone.
	requireStopped(t, sys, "/system/distant-ask")
}

// teller tells a distant actor whatever it receives.
func teller(ctx *Context, payload any) error {
	distant := NewDistantRef(NewDistantPath("/user/far", "10.0.0.1:9735"))
	ctx.Tell(distant, payload)

	return nil
}

// TestTellDistantFails checks that a distant delivery from inside an actor
// fails the message.
func TestTellDistantFails(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return ReceiveFunc(teller)
	}), "teller")
	require.NoError(t, err)

	require.NoError(t, sys.Tell(ref, "hi"))

	require.Eventually(t, func() bool {
		failures := sys.RecentFailures()

		return len(failures) == 1 &&
			errors.Is(failures[0].Reason, ErrDistantDelivery)
	}, testTimeout, 10*time.Millisecond)
}

// TestNameTaken checks that two actors can not share a path.
func TestNameTaken(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	spawnStorage(t, sys, "storage")

	_, err := sys.ActorOf(PropsFromFunc(newStorage), "storage")
	require.ErrorIs(t, err, ErrNameTaken)

	for _, name := range []string{"", "a/b"} {
		_, err := sys.ActorOf(PropsFromFunc(newStorage), name)
		require.ErrorIs(t, err, ErrInvalidName)
	}
}

// collector forwards every message it receives to a channel.
type collector struct {
	out chan any
}

func newCollector(out chan any) Actor {
	return &collector{out: out}
}

func (c *collector) Receive(_ *Context, payload any) error {
	c.out <- payload
	return nil
}

// TestDeadLetters checks that messages to a stopped actor reach the dead
// letter subscriber.
func TestDeadLetters(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)

	letters := make(chan any, 10)
	sink, err := sys.ActorOf(NewProps(newCollector, letters), "dead")
	require.NoError(t, err)
	sys.SubscribeDeadLetters(sink)

	ref := spawnStorage(t, sys, "storage")
	require.NoError(t, sys.Tell(ref, stop{}))
	requireStopped(t, sys, "/user/storage")

	err = sys.Tell(ref, setValue{Value: 1})
	require.ErrorIs(t, err, ErrActorStopped)

	msg, err := fn.RecvOrTimeout(letters, testTimeout)
	require.NoError(t, err)

	letter, ok := msg.(DeadLetter)
	require.True(t, ok)
	require.True(t, letter.Recipient.Equal(ref.Path()))
	require.Equal(t, setValue{Value: 1}, letter.Envelope.Payload)
	require.Same(t, sys.Root(), letter.Envelope.Sender)

	require.GreaterOrEqual(
		t, testutil.ToFloat64(sys.metrics.deadLetters), float64(1),
	)

	// Unknown payloads sent to the root are dead letters too.
	require.NoError(t, sys.Tell(sys.Root(), "lost"))

	msg, err = fn.RecvOrTimeout(letters, testTimeout)
	require.NoError(t, err)
	require.Equal(t, "lost", msg.(DeadLetter).Envelope.Payload)
}

// TestRestartLimit checks that an actor failing too often within the
// restart window is stopped.
func TestRestartLimit(t *testing.T) {
	t.Parallel()

	testClock := clock.NewTestClock(time.Unix(1_000_000, 0))
	sys := newTestSystem(t, func(cfg *Config) {
		cfg.Clock = testClock
		cfg.MaxRestarts = 2
		cfg.RestartWindow = time.Minute
	})
	ref := spawnStorage(t, sys, "storage")

	// Two failures are within budget.
	require.NoError(t, sys.Tell(ref, crash{}))
	require.NoError(t, sys.Tell(ref, crash{}))
	requireValue(t, sys, ref, 0)

	// Failures outside the window no longer count.
	testClock.SetTime(testClock.Now().Add(2 * time.Minute))
	require.NoError(t, sys.Tell(ref, crash{}))
	require.NoError(t, sys.Tell(ref, crash{}))
	requireValue(t, sys, ref, 0)

	// The third failure within the window stops the actor.
	require.NoError(t, sys.Tell(ref, crash{}))
	requireStopped(t, sys, "/user/storage")

	failures := sys.RecentFailures()
	require.Len(t, failures, 5)
	require.ErrorIs(t, failures[4].Reason, ErrRestartLimit)
	require.Equal(t, testClock.Now(), failures[4].Time)
}

// TestFailureHistory checks that the failure history keeps the newest
// records while counting all of them.
func TestFailureHistory(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t, func(cfg *Config) {
		cfg.FailureHistory = 2
	})
	ref := spawnStorage(t, sys, "storage")

	require.True(t, sys.LastFailure().IsNone())
	require.Zero(t, sys.FailureCount())

	require.NoError(t, sys.Tell(ref, crash{}))
	require.NoError(t, sys.Tell(ref, crash{}))
	require.NoError(t, sys.Tell(ref, fail{}))
	requireValue(t, sys, ref, 0)

	require.Equal(t, 3, sys.FailureCount())

	failures := sys.RecentFailures()
	require.Len(t, failures, 2)

	last := sys.LastFailure().UnsafeFromSome()
	require.Equal(t, failures[1], last)
	require.ErrorIs(t, last.Reason, errTestFailure)

	// With the system idle, nothing waits for a worker.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(sys.metrics.backlog) == 0
	}, testTimeout, 10*time.Millisecond)
}

// hookActor counts its lifecycle hooks and fails its first PreStart.
type hookActor struct {
	BaseActor

	starts   *atomic.Int32
	restarts *atomic.Int32
}

func (h *hookActor) PreStart(*Context) error {
	if h.starts.Add(1) == 1 {
		return errTestFailure
	}

	return nil
}

func (h *hookActor) PostRestart(*Context) error {
	h.restarts.Add(1)
	return nil
}

func (h *hookActor) Receive(ctx *Context, _ any) error {
	ctx.Tell(ctx.Sender(), int(h.restarts.Load()))
	return nil
}

// TestLifecycleHooks checks that a failing PreStart leads to a restart that
// runs PostRestart on the fresh instance.
func TestLifecycleHooks(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)

	var starts, restarts atomic.Int32
	ref, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return &hookActor{starts: &starts, restarts: &restarts}
	}), "hooks")
	require.NoError(t, err)

	requireValue(t, sys, ref, 1)
	require.Equal(t, int32(1), starts.Load())

	failures := sys.RecentFailures()
	require.Len(t, failures, 1)
	require.ErrorIs(t, failures[0].Reason, errTestFailure)
}

// parent spawns a storage child on request and replies with its Ref.
func parent(ctx *Context, payload any) error {
	switch payload.(type) {
	case string:
		child, err := ctx.ActorOf(PropsFromFunc(newStorage), "child")
		if err != nil {
			return err
		}
		ctx.Tell(ctx.Sender(), child)

	case stop:
		ctx.KillMe()
	}

	return nil
}

// TestChildActors checks that children live below their parent, are
// supervised by it and stop with it.
func TestChildActors(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	ref, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return ReceiveFunc(parent)
	}), "parent")
	require.NoError(t, err)

	child, err := AskFor[*Ref](testContext(t), sys, ref, "spawn")
	require.NoError(t, err)
	require.Equal(t, "/user/parent/child", child.Path().String())

	require.NoError(t, sys.Tell(child, setValue{Value: 3}))
	require.NoError(t, sys.Tell(child, crash{}))
	requireValue(t, sys, child, 0)

	require.NoError(t, sys.Tell(ref, stop{}))
	requireStopped(t, sys, "/user/parent")
	requireStopped(t, sys, "/user/parent/child")
}

// relay asks a storage actor for its value and forwards the answer to a
// channel.
type relay struct {
	out chan any
}

func newRelay(out chan any) Actor {
	return &relay{out: out}
}

func (r *relay) Receive(ctx *Context, payload any) error {
	switch msg := payload.(type) {
	case *Ref:
		future, err := ctx.System().Ask(
			msg, getValue{}, ctx.System().nextName("relay"),
		)
		if err != nil {
			return err
		}
		ForwardResult[int](ctx, future, ctx.ActorRef())

	case string:
		future, err := ctx.IdentifyActor(msg)
		if err != nil {
			return err
		}
		ForwardResult[fn.Option[*Ref]](ctx, future, ctx.ActorRef())

	default:
		r.out <- payload
	}

	return nil
}

// TestForwardResult checks forwarding futures to actors, including path
// resolution from inside an actor.
func TestForwardResult(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	target := spawnStorage(t, sys, "storage")
	require.NoError(t, sys.Tell(target, setValue{Value: 42}))

	out := make(chan any, 1)
	ref, err := sys.ActorOf(NewProps(newRelay, out), "relay")
	require.NoError(t, err)

	require.NoError(t, sys.Tell(ref, target))
	msg, err := fn.RecvOrTimeout(out, testTimeout)
	require.NoError(t, err)
	require.Equal(t, 42, msg)

	require.NoError(t, sys.Tell(ref, "/user/storage"))
	msg, err = fn.RecvOrTimeout(out, testTimeout)
	require.NoError(t, err)
	require.Equal(t, fn.Some(target), msg)

	require.NoError(t, sys.Tell(ref, "/user/ghost"))
	msg, err = fn.RecvOrTimeout(out, testTimeout)
	require.NoError(t, err)
	require.Equal(t, fn.None[*Ref](), msg)
}

// TestConcurrentAsks checks that many concurrent asks are all answered.
func TestConcurrentAsks(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	echo, err := sys.ActorOf(PropsFromFunc(func() Actor {
		return ReceiveFunc(func(ctx *Context, payload any) error {
			ctx.Tell(ctx.Sender(), payload)
			return nil
		})
	}), "echo")
	require.NoError(t, err)

	ctx := testContext(t)
	g, gctx := errgroup.WithContext(ctx)

	const numAsks = 50
	var sum atomic.Int64
	for i := 1; i <= numAsks; i++ {
		g.Go(func() error {
			value, err := AskFor[int](gctx, sys, echo, i)
			if err != nil {
				return fmt.Errorf("ask %d: %w", i, err)
			}
			sum.Add(int64(value))

			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int64(numAsks*(numAsks+1)/2), sum.Load())

	// Futures and extractors clean up after themselves.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(sys.metrics.liveActors) == 1
	}, testTimeout, 10*time.Millisecond)
}

// TestShutdown checks that shutdown stops every actor and rejects new ones.
func TestShutdown(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	for i := 0; i < 5; i++ {
		spawnStorage(t, sys, fmt.Sprintf("storage-%d", i))
	}
	require.Equal(t, float64(5), testutil.ToFloat64(sys.metrics.liveActors))

	require.NoError(t, sys.Shutdown())

	require.Zero(t, testutil.ToFloat64(sys.metrics.liveActors))
	require.True(t, sys.Lookup("/user/storage-0").IsNone())

	_, err := sys.ActorOf(PropsFromFunc(newStorage), "late")
	require.ErrorIs(t, err, ErrSystemShutdown)

	// Shutting down twice is fine.
	require.NoError(t, sys.Shutdown())
}

// TestCellStateString checks state names.
func TestCellStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Created", CellCreated.String())
	require.Equal(t, "Running", CellRunning.String())
	require.Equal(t, "Failed", CellFailed.String())
	require.Equal(t, "Restarting", CellRestarting.String())
	require.Equal(t, "Stopped", CellStopped.String())
	require.Equal(t, "CellState(9)", CellState(9).String())
}
