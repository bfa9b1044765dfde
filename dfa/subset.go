package dfa

import (
	"github.com/klex/klex/bitset"
	"github.com/klex/klex/nfa"
)

// epsilonClosure expands set in place to include every NFA node
// reachable from its current members by epsilon transitions alone,
// and returns the accept metadata of the lowest-id accepting node
// found in the closure (nil if none) — the rule-priority tie-break:
// the earliest-declared rule's accept wins.
func epsilonClosure(arena *nfa.Arena, set *bitset.BitSet) *nfa.Accept {
	var accept *nfa.Accept
	acceptID := nfa.InvalidNode

	var stack []nfa.NodeID
	for it := set.Iter(); ; {
		id, ok := it.Next()
		if !ok {
			break
		}
		stack = append(stack, nfa.NodeID(id))
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := arena.Get(id)

		if node.IsAccepting() && (acceptID == nfa.InvalidNode || id < acceptID) {
			acceptID = id
			accept = node.Accept()
		}

		if node.Label() != nfa.Epsilon {
			continue
		}
		for _, next := range [2]nfa.NodeID{node.Next(), node.Next2()} {
			if next == nfa.InvalidNode {
				continue
			}
			if !set.Contains(int(next)) {
				set.Add(int(next))
				stack = append(stack, next)
			}
		}
	}

	return accept
}

// move returns the set of NFA nodes reachable from any member of set
// by consuming input byte c, or nil if none. The returned set is a
// fresh BitSet sized like set; epsilonClosure must be applied to it
// before use as a DFA state's NFA set.
func move(arena *nfa.Arena, set *bitset.BitSet, c byte) *bitset.BitSet {
	var out *bitset.BitSet
	for it := set.Iter(); ; {
		id, ok := it.Next()
		if !ok {
			break
		}
		node := arena.Get(nfa.NodeID(id))
		matches := false
		switch node.Label() {
		case nfa.Char:
			matches = node.Char() == c
		case nfa.CharClass:
			matches = node.Class().Contains(int(c))
		}
		if !matches {
			continue
		}
		if out == nil {
			out = bitset.New(set.Capacity())
		}
		out.Add(int(node.Next()))
	}
	return out
}

// Build performs subset construction over arena, starting from
// arena.Start(), producing a complete DFA with no unreached states and
// no duplicate state-sets. Every row of the returned table has exactly
// cfg.AlphabetSize columns.
func Build(arena *nfa.Arena, cfg Config) (*DFA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &DFA{AlphabetSize: cfg.AlphabetSize}
	interned := make(map[string]StateID)

	addState := func(set *bitset.BitSet, accept *nfa.Accept) (StateID, error) {
		if len(d.States) >= cfg.MaxStates {
			return InvalidState, &TooManyStatesError{Max: cfg.MaxStates}
		}
		id := StateID(len(d.States))
		d.States = append(d.States, &State{ID: id, NFASet: set, Accept: accept})
		row := make([]StateID, cfg.AlphabetSize)
		for i := range row {
			row[i] = InvalidState
		}
		d.Trans = append(d.Trans, row)
		interned[set.Key()] = id
		return id, nil
	}

	startSet := bitset.New(arena.Len())
	startSet.Add(int(arena.Start()))
	startAccept := epsilonClosure(arena, startSet)
	startID, err := addState(startSet, startAccept)
	if err != nil {
		return nil, err
	}
	d.Start = startID

	for i := 0; i < len(d.States); i++ {
		current := d.States[i]
		if current.marked {
			continue
		}
		current.marked = true

		for c := 0; c < cfg.AlphabetSize; c++ {
			moved := move(arena, current.NFASet, byte(c))
			if moved == nil {
				d.Trans[i][c] = InvalidState
				continue
			}
			accept := epsilonClosure(arena, moved)

			if existing, ok := interned[moved.Key()]; ok {
				d.Trans[i][c] = existing
				continue
			}
			next, err := addState(moved, accept)
			if err != nil {
				return nil, err
			}
			d.Trans[i][c] = next
		}
	}

	return d, nil
}
