package actor

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// RoutingStrategy selects one Ref out of the live routees of a router.
type RoutingStrategy interface {
	// Select chooses a Ref from refs, which is never empty.
	Select(refs []*Ref) (*Ref, error)
}

// RoundRobinStrategy selects routees in turn. It is safe for concurrent use.
type RoundRobinStrategy struct {
	index atomic.Uint64
}

// A compile time check to ensure RoundRobinStrategy implements
// RoutingStrategy.
var _ RoutingStrategy = (*RoundRobinStrategy)(nil)

// NewRoundRobinStrategy creates a RoundRobinStrategy starting at the first
// routee.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Select picks the next routee.
func (s *RoundRobinStrategy) Select(refs []*Ref) (*Ref, error) {
	if len(refs) == 0 {
		return nil, ErrNoActorsAvailable
	}

	// Add returns the new value, so subtract one to start at index zero.
	idx := s.index.Add(1) - 1

	return refs[idx%uint64(len(refs))], nil
}

// Router fronts a set of logical paths. The paths are resolved through the
// registry on every send, so routees that stopped are skipped and routees
// that were respawned are picked up again. The router is not an actor itself.
type Router struct {
	sys      *System
	strategy RoutingStrategy
	paths    []string
}

// NewRouter creates a router over paths using strategy.
func NewRouter(sys *System, strategy RoutingStrategy,
	paths ...string) *Router {

	return &Router{
		sys:      sys,
		strategy: strategy,
		paths:    paths,
	}
}

// routees returns the currently live routees.
func (r *Router) routees() []*Ref {
	refs := make([]*Ref, 0, len(r.paths))
	for _, path := range r.paths {
		r.sys.Lookup(path).WhenSome(func(ref *Ref) {
			refs = append(refs, ref)
		})
	}

	return refs
}

// pick selects a live routee.
func (r *Router) pick() (*Ref, error) {
	refs := r.routees()
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoActorsAvailable, r)
	}

	return r.strategy.Select(refs)
}

// TellTo sends message to one routee with sender attached. If no routee is
// alive the message becomes a dead letter and ErrNoActorsAvailable is
// returned.
func (r *Router) TellTo(sender *Ref, message any) error {
	target, err := r.pick()
	if err != nil {
		r.sys.deadLetter(NewLocalPath(r.String()), Envelope{
			Payload: message,
			Sender:  sender,
		})

		return err
	}

	return target.Receive(message, sender)
}

// Ask sends payload to one routee through a new future called name.
func (r *Router) Ask(payload any, name string) (*Ref, error) {
	target, err := r.pick()
	if err != nil {
		return nil, err
	}

	return r.sys.Ask(target, payload, name)
}

// String returns a description of the router.
func (r *Router) String() string {
	return "router(" + strings.Join(r.paths, ",") + ")"
}
