package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

var errTestFailure = errors.New("test failure")

// newTestSystem creates a system with its own metrics registry that is shut
// down when the test ends. The config can be adjusted through modify.
func newTestSystem(t *testing.T, modify ...func(*Config)) *System {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.Registerer = prometheus.NewRegistry()
	for _, m := range modify {
		m(cfg)
	}

	sys, err := NewSystem(t.Name(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, sys.Shutdown())
	})

	return sys
}

// testContext returns a context bounded by testTimeout.
func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	return ctx
}

type (
	// setValue makes a storage actor hold Value.
	setValue struct {
		Value int
	}

	// getValue makes a storage actor reply with its value.
	getValue struct{}

	// crash makes an actor panic.
	crash struct{}

	// fail makes an actor return an error.
	fail struct{}

	// stop makes an actor stop itself.
	stop struct{}
)

// storage is a test actor holding a single int.
type storage struct {
	value int
}

func newStorage() Actor {
	return &storage{}
}

func (s *storage) Receive(ctx *Context, payload any) error {
	switch msg := payload.(type) {
	case setValue:
		s.value = msg.Value

	case getValue:
		ctx.Tell(ctx.Sender(), s.value)

	case crash:
		panic("storage crashed")

	case fail:
		return errTestFailure

	case stop:
		ctx.KillMe()
	}

	return nil
}

// spawnStorage spawns a storage actor at /user/<name>.
func spawnStorage(t *testing.T, sys *System, name string) *Ref {
	t.Helper()

	ref, err := sys.ActorOf(PropsFromFunc(newStorage), name)
	require.NoError(t, err)

	return ref
}

// requireValue asks a storage actor for its value.
func requireValue(t *testing.T, sys *System, ref *Ref, expected int) {
	t.Helper()

	value, err := AskFor[int](testContext(t), sys, ref, getValue{})
	require.NoError(t, err)
	require.Equal(t, expected, value)
}

// requireStopped waits until nothing is registered at path anymore.
func requireStopped(t *testing.T, sys *System, path string) {
	t.Helper()

	require.Eventually(t, func() bool {
		return sys.Lookup(path).IsNone()
	}, testTimeout, 10*time.Millisecond)
}
