package actor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// rootPath is the logical path of the root guardian.
const rootPath = "/"

// registry is the root guardian of a System. It maps logical paths to live
// Refs, answers Identify requests and supervises top level actors. It never
// runs user code, so it processes messages inline instead of through a
// mailbox.
type registry struct {
	sys *System
	ref *Ref

	mu     sync.RWMutex
	actors map[string]*Ref
}

// newRegistry creates the root guardian of sys.
func newRegistry(sys *System) *registry {
	r := &registry{
		sys:    sys,
		actors: make(map[string]*Ref),
	}
	r.ref = &Ref{target: r, path: NewLocalPath(rootPath)}

	return r
}

// register adds ref under its logical path.
func (r *registry) register(ref *Ref) error {
	name := ref.path.LogicalPath()

	r.mu.Lock()
	defer r.mu.Unlock()

	if name == rootPath {
		return fmt.Errorf("%w: %v", ErrNameTaken, name)
	}
	if _, ok := r.actors[name]; ok {
		return fmt.Errorf("%w: %v", ErrNameTaken, name)
	}
	r.actors[name] = ref

	return nil
}

// unregister removes ref. A different Ref registered under the same path is
// left alone.
func (r *registry) unregister(ref *Ref) {
	name := ref.path.LogicalPath()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.actors[name] == ref {
		delete(r.actors, name)
	}
}

// lookup resolves a logical path. The root path resolves to the registry
// itself.
func (r *registry) lookup(name string) fn.Option[*Ref] {
	if name == rootPath {
		return fn.Some(r.ref)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.actors[name]
	if !ok {
		return fn.None[*Ref]()
	}

	return fn.Some(ref)
}

// refs returns all registered Refs sorted by path.
func (r *registry) refs() []*Ref {
	r.mu.RLock()
	refs := make([]*Ref, 0, len(r.actors))
	for _, ref := range r.actors {
		refs = append(refs, ref)
	}
	r.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].path.LogicalPath() < refs[j].path.LogicalPath()
	})

	return refs
}

// receiveSystemMessage implements refTarget. The registry supervises top
// level actors: a Failure is answered with a Restart. Other system messages
// are ignored.
func (r *registry) receiveSystemMessage(msg SystemMessage) error {
	failure, ok := msg.(Failure)
	if !ok {
		return nil
	}

	log.Debugf("Root restarting %v after: %v", failure.Child,
		failure.Reason)

	if err := failure.Child.ReceiveSystemMessage(Restart{}); err != nil {
		log.Debugf("Unable to restart %v: %v", failure.Child, err)
	}

	return nil
}

// receive implements refTarget. Identify requests are answered right away;
// any other payload is a dead letter.
func (r *registry) receive(env Envelope) error {
	identify, ok := env.Payload.(Identify)
	if !ok {
		r.sys.deadLetter(r.ref.path, env)
		return nil
	}

	if env.Sender == nil {
		log.Debugf("Dropping identify for %v without sender",
			identify.Path)

		return nil
	}

	// The lookup result is copied out of the lock before replying.
	result := r.lookup(identify.Path)

	return env.Sender.Receive(result, r.ref)
}

// handle implements refTarget. The registry has no mailbox.
func (r *registry) handle() error {
	return nil
}
