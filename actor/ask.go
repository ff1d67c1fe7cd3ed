package actor

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// systemPath is the parent path of runtime-owned actors such as futures and
// extractors.
const systemPath = "/system"

// Ask spawns a future at /system/<name> and tells target the payload with the
// future as sender. The target answers by telling its sender, which
// completes the future.
func (s *System) Ask(target *Ref, payload any, name string) (*Ref, error) {
	future, err := s.spawnFuture(name)
	if err != nil {
		return nil, err
	}

	if err := target.Receive(payload, future); err != nil {
		if err := future.ReceiveSystemMessage(Terminate{}); err != nil {
			log.Tracef("Future %v already stopped", future)
		}

		return nil, fmt.Errorf("ask %v: %w", target, err)
	}

	return future, nil
}

// spawnFuture creates a future actor under the system path.
func (s *System) spawnFuture(name string) (*Ref, error) {
	path, err := childPath(systemPath, name)
	if err != nil {
		return nil, err
	}

	future := NewFuture()

	return s.spawn(NewProps(newFutureActor, future), path, s.root, future)
}

// identify resolves path through the root registry. The returned future
// completes with an fn.Option[*Ref].
func (s *System) identify(path string) (*Ref, error) {
	return s.Ask(s.root, Identify{Path: path}, s.nextName("identify"))
}

// ExtractResult waits for the value of a future and returns it as a T. A
// value of another type yields an *UnexpectedTypeError.
//
// The context only bounds how long the caller waits. It does not cancel the
// future, which keeps running until it is completed.
func ExtractResult[T any](ctx context.Context, sys *System,
	future *Ref) (T, error) {

	var zero T

	f := future.future().UnwrapOr(nil)
	switch {
	case f == nil:
		return zero, fmt.Errorf("%w: %v", ErrNotFuture, future)

	case f.Done():
		return zero, fmt.Errorf("%w: %v", ErrFutureTerminated, future)
	}

	path, err := childPath(systemPath, sys.nextName("extractor"))
	if err != nil {
		return zero, err
	}

	result := make(chan fn.Result[T], 1)
	args := extractorArgs[T]{future: future, result: result}

	ext, err := sys.spawn(NewProps(newExtractor[T], args), path, sys.root,
		nil)
	if err != nil {
		return zero, err
	}

	select {
	case res := <-result:
		return res.Unpack()

	case <-ctx.Done():
		if err := ext.ReceiveSystemMessage(Terminate{}); err != nil {
			log.Tracef("Extractor %v already stopped", ext)
		}

		return zero, ctx.Err()
	}
}

// AskFor tells target the payload and waits for its typed answer.
func AskFor[T any](ctx context.Context, sys *System, target *Ref,
	payload any) (T, error) {

	future, err := sys.Ask(target, payload, sys.nextName("ask"))
	if err != nil {
		var zero T
		return zero, err
	}

	return ExtractResult[T](ctx, sys, future)
}
