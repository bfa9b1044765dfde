// Package nfa implements the NFA arena and Thompson-construction
// fragment builder the recursive-descent parser drives: a bounded pool
// of nodes addressed by small integer identifiers, with labeled edges
// (epsilon, single byte, or byte class) and up to two outgoing
// successors per node.
package nfa

import (
	"fmt"

	"github.com/klex/klex/bitset"
)

// NodeID identifies an NFA node. Identifiers are dense in [0, n) for
// whatever n the arena has allocated so far and never change once
// assigned to a live node.
type NodeID int

// InvalidNode is the sentinel for "no successor".
const InvalidNode NodeID = -1

// Label tags an NFA node's outgoing edge.
type Label int

const (
	// Empty marks a freed node: no outgoing edges, not part of any
	// live fragment.
	Empty Label = iota
	// Epsilon is a spontaneous transition, consuming no input. Up to
	// two successors (Next, Next2) are meaningful for this label.
	Epsilon
	// Char consumes exactly one input byte.
	Char
	// CharClass consumes any input byte in the associated set.
	CharClass
)

func (l Label) String() string {
	switch l {
	case Empty:
		return "Empty"
	case Epsilon:
		return "Epsilon"
	case Char:
		return "Char"
	case CharClass:
		return "CharClass"
	default:
		return "Unknown"
	}
}

// Anchor records a rule's `^`/`$` positional constraints.
type Anchor int

const (
	AnchorNone Anchor = iota
	AnchorStart
	AnchorEnd
	AnchorBoth
)

func (a Anchor) String() string {
	switch a {
	case AnchorNone:
		return "None"
	case AnchorStart:
		return "Start"
	case AnchorEnd:
		return "End"
	case AnchorBoth:
		return "Both"
	default:
		return "Unknown"
	}
}

// Accept holds the metadata stamped onto a rule's terminal NFA node.
type Accept struct {
	Action string
	Anchor Anchor
}

// Node is one record in the arena. Only the fields relevant to Label
// are meaningful: a Char/CharClass node uses only Next; an Epsilon
// node may use both Next and Next2; an accepting node (Accept != nil)
// has no outgoing edges at all.
type Node struct {
	id    NodeID
	label Label

	char  byte
	class *bitset.BitSet

	next  NodeID
	next2 NodeID

	accept *Accept
}

// ID returns the node's identifier.
func (n *Node) ID() NodeID { return n.id }

// Label returns the node's edge label.
func (n *Node) Label() Label { return n.label }

// Char returns the byte a Char-labeled node transitions on.
func (n *Node) Char() byte { return n.char }

// Class returns the accepted byte set for a CharClass-labeled node.
func (n *Node) Class() *bitset.BitSet { return n.class }

// Next returns the primary successor.
func (n *Node) Next() NodeID { return n.next }

// Next2 returns the secondary successor (Epsilon nodes only).
func (n *Node) Next2() NodeID { return n.next2 }

// Accept returns the node's accept metadata, or nil if this is not an
// accepting state.
func (n *Node) Accept() *Accept { return n.accept }

// IsAccepting reports whether this node is a terminal accept state.
func (n *Node) IsAccepting() bool { return n.accept != nil }

// TooManyStatesError reports arena exhaustion.
type TooManyStatesError struct {
	Max int
}

func (e *TooManyStatesError) Error() string {
	return fmt.Sprintf("nfa: too many states (limit %d)", e.Max)
}

// InvalidNodeError reports an operation against an out-of-range or
// freed node id.
type InvalidNodeError struct {
	ID NodeID
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("nfa: invalid node id %d", e.ID)
}

// Arena owns the NFA's node pool for one generator invocation. Nodes
// are allocated one at a time as the parser descends; the
// concatenation construction (§4.5) is the only place a node is freed,
// and its id becomes available for a later allocation — ids are
// immutable for the lifetime of whichever node currently owns them,
// but an id is only ever owned by one live node at a time.
type Arena struct {
	nodes []Node
	free  []NodeID
	max   int
	start NodeID
}

// NewArena creates an empty arena bounded at max live+allocated nodes.
func NewArena(max int) *Arena {
	return &Arena{max: max, start: InvalidNode}
}

// Max returns the arena's configured node cap.
func (a *Arena) Max() int { return a.max }

// Len returns the number of node slots ever allocated (including freed
// ones still occupying a slot).
func (a *Arena) Len() int { return len(a.nodes) }

// New allocates a node with the given label, reusing a freed slot if
// one is available, and returns its id.
func (a *Arena) New(label Label) (NodeID, error) {
	if len(a.free) > 0 {
		id := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		a.nodes[id] = Node{id: id, label: label, next: InvalidNode, next2: InvalidNode}
		return id, nil
	}
	if len(a.nodes) >= a.max {
		return InvalidNode, &TooManyStatesError{Max: a.max}
	}
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, Node{id: id, label: label, next: InvalidNode, next2: InvalidNode})
	return id, nil
}

// NewChar allocates a Char node transitioning on c to next.
func (a *Arena) NewChar(c byte, next NodeID) (NodeID, error) {
	id, err := a.New(Char)
	if err != nil {
		return InvalidNode, err
	}
	a.nodes[id].char = c
	a.nodes[id].next = next
	return id, nil
}

// NewCharClass allocates a CharClass node transitioning on any byte in
// set to next. set is retained, not copied.
func (a *Arena) NewCharClass(set *bitset.BitSet, next NodeID) (NodeID, error) {
	id, err := a.New(CharClass)
	if err != nil {
		return InvalidNode, err
	}
	a.nodes[id].class = set
	a.nodes[id].next = next
	return id, nil
}

// NewEpsilon allocates an Epsilon node with up to two successors.
// Pass InvalidNode for an unused successor.
func (a *Arena) NewEpsilon(next, next2 NodeID) (NodeID, error) {
	id, err := a.New(Epsilon)
	if err != nil {
		return InvalidNode, err
	}
	a.nodes[id].next = next
	a.nodes[id].next2 = next2
	return id, nil
}

func (a *Arena) checkID(id NodeID) error {
	if id < 0 || int(id) >= len(a.nodes) {
		return &InvalidNodeError{ID: id}
	}
	return nil
}

// Get returns a pointer to the node at id. Panics on an invalid id;
// callers only ever hold ids returned by this arena's own allocators.
func (a *Arena) Get(id NodeID) *Node {
	if err := a.checkID(id); err != nil {
		panic(err)
	}
	return &a.nodes[id]
}

// PatchNext rewrites a node's primary successor. Used by the parser to
// back-patch forward references left dangling during fragment
// construction (e.g. closures, alternation).
func (a *Arena) PatchNext(id, next NodeID) error {
	if err := a.checkID(id); err != nil {
		return err
	}
	a.nodes[id].next = next
	return nil
}

// PatchNext2 rewrites a node's secondary successor.
func (a *Arena) PatchNext2(id, next2 NodeID) error {
	if err := a.checkID(id); err != nil {
		return err
	}
	a.nodes[id].next2 = next2
	return nil
}

// SetEpsilon turns an existing node (typically a still-dangling Empty
// placeholder left as a fragment's "out" edge) into an Epsilon node
// with the given successors. Used by alternation and closure
// construction to join a fragment's loose end into the surrounding
// structure without disturbing its id.
func (a *Arena) SetEpsilon(id, next, next2 NodeID) error {
	if err := a.checkID(id); err != nil {
		return err
	}
	a.nodes[id].label = Epsilon
	a.nodes[id].next = next
	a.nodes[id].next2 = next2
	return nil
}

// SetCharClass turns an existing dangling Empty placeholder into a
// CharClass node. Used by `$` anchor construction: the fragment's old
// "out" node becomes a node matching only '\n', and a fresh
// placeholder takes over as the new "out" node.
func (a *Arena) SetCharClass(id NodeID, set *bitset.BitSet, next NodeID) error {
	if err := a.checkID(id); err != nil {
		return err
	}
	a.nodes[id].label = CharClass
	a.nodes[id].class = set
	a.nodes[id].next = next
	return nil
}

// SetAccept stamps accept metadata onto a node, marking it a terminal
// accepting state.
func (a *Arena) SetAccept(id NodeID, accept *Accept) error {
	if err := a.checkID(id); err != nil {
		return err
	}
	a.nodes[id].accept = accept
	return nil
}

// Merge overwrites into's content with from's outgoing structure, then
// frees from. This is the concatenation construction: the first
// fragment's dangling end absorbs the second fragment's start, which
// is freed. Every existing edge already pointing at `into` keeps
// working, since into's id never changes — only its content does.
func (a *Arena) Merge(into, from NodeID) error {
	if err := a.checkID(into); err != nil {
		return err
	}
	if err := a.checkID(from); err != nil {
		return err
	}
	src := a.nodes[from]
	id := a.nodes[into].id
	a.nodes[into] = src
	a.nodes[into].id = id
	return a.Free(from)
}

// Free marks id's slot as reusable by a future New call. The node's
// label becomes Empty and it is removed from the live graph: nothing
// should still reference this id after Free, except through the
// Merge call that produced the free (whose target already has a fresh
// identity).
func (a *Arena) Free(id NodeID) error {
	if err := a.checkID(id); err != nil {
		return err
	}
	a.nodes[id] = Node{id: id, label: Empty, next: InvalidNode, next2: InvalidNode}
	a.free = append(a.free, id)
	return nil
}

// SetStart designates id as the NFA's single start state.
func (a *Arena) SetStart(id NodeID) {
	a.start = id
}

// Start returns the designated start state, or InvalidNode if none has
// been set yet.
func (a *Arena) Start() NodeID {
	return a.start
}

// LiveCount returns the number of currently allocated, non-freed
// nodes — the quantity the arena's cap bounds.
func (a *Arena) LiveCount() int {
	return len(a.nodes) - len(a.free)
}
