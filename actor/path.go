package actor

import (
	"fmt"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ConnectionInfo describes how to reach an actor living in another process.
type ConnectionInfo struct {
	// DistantLogicalPath is the logical path of the actor in its own
	// system, e.g. "/user/distant/actor".
	DistantLogicalPath string

	// AddrPort is the network address of the distant system, e.g.
	// "127.0.0.1:12345".
	AddrPort string
}

// Path is the logical address of an actor. A path is either local, in which
// case it is only a slash separated name, or distant, in which case it also
// carries the connection info of the remote system.
//
// Paths are immutable and are passed around by pointer so that every Ref to
// the same actor shares the same value. Two paths are equal only if they are
// structurally identical: a local and a distant path are never equal even if
// their logical names match.
type Path struct {
	logical string
	addr    string
	distant bool
}

// NewLocalPath creates a path to a local actor.
func NewLocalPath(name string) *Path {
	return &Path{logical: name}
}

// NewDistantPath creates a path to an actor in another process.
func NewDistantPath(logicalName, addrPort string) *Path {
	return &Path{
		logical: logicalName,
		addr:    addrPort,
		distant: true,
	}
}

// LogicalPath returns the logical name of the actor. For distant paths this
// is the logical path inside the remote system; the address is never part of
// it.
func (p *Path) LogicalPath() string {
	return p.logical
}

// IsLocal returns true if the path points at an actor in this process.
func (p *Path) IsLocal() bool {
	return !p.distant
}

// Connection returns the connection info of a distant path.
func (p *Path) Connection() fn.Option[ConnectionInfo] {
	if !p.distant {
		return fn.None[ConnectionInfo]()
	}

	return fn.Some(ConnectionInfo{
		DistantLogicalPath: p.logical,
		AddrPort:           p.addr,
	})
}

// Child derives the path of a child actor. Children are always local, so
// deriving a child of a distant path fails with ErrDistantChild.
func (p *Path) Child(name string) (*Path, error) {
	if p.distant {
		return nil, fmt.Errorf("%w: %v", ErrDistantChild, p)
	}

	return NewLocalPath(strings.TrimSuffix(p.logical, "/") + "/" + name),
		nil
}

// Equal reports whether both paths are structurally identical.
func (p *Path) Equal(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}

	return *p == *other
}

// String returns a human readable form of the path.
func (p *Path) String() string {
	if p.distant {
		return p.addr + p.logical
	}

	return p.logical
}
