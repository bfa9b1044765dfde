package dfa

import "github.com/klex/klex/nfa"

// AcceptTable extracts, for each DFA state in order, the accept
// metadata stamped on it during subset construction (nil for
// non-accepting states) — the array an emitter walks to know which
// action to run when the scanner halts in a given state.
func (d *DFA) AcceptTable() []*nfa.Accept {
	out := make([]*nfa.Accept, len(d.States))
	for i, s := range d.States {
		out[i] = s.Accept
	}
	return out
}

// AcceptingStates returns the StateIDs of every accepting state, in
// ascending order.
func (d *DFA) AcceptingStates() []StateID {
	var out []StateID
	for _, s := range d.States {
		if s.IsAccepting() {
			out = append(out, s.ID)
		}
	}
	return out
}

// Anchor codes as they appear in the emitted accept array
// (historically Yyaccept).
const (
	AnchorCodeNone     = 0 // not an accepting state
	AnchorCodeStart    = 1 // accepting, ^-anchored
	AnchorCodeEnd      = 2 // accepting, $-anchored
	AnchorCodeBoth     = 3 // accepting, ^- and $-anchored
	AnchorCodeAccepted = 4 // accepting, unanchored
)

// AnchorCodes returns, for each DFA state in order, the small-integer
// anchor encoding an emitter writes into its accept array.
func (d *DFA) AnchorCodes() []int {
	out := make([]int, len(d.States))
	for i, s := range d.States {
		if !s.IsAccepting() {
			out[i] = AnchorCodeNone
			continue
		}
		switch s.Accept.Anchor {
		case nfa.AnchorStart:
			out[i] = AnchorCodeStart
		case nfa.AnchorEnd:
			out[i] = AnchorCodeEnd
		case nfa.AnchorBoth:
			out[i] = AnchorCodeBoth
		default:
			out[i] = AnchorCodeAccepted
		}
	}
	return out
}
