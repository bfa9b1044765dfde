// Package dfa performs subset construction: converting an NFA built by
// package nfa into a deterministic transition table plus an accept
// array, ready for an external emitter to render as source code.
package dfa

import (
	"fmt"

	"github.com/klex/klex/bitset"
	"github.com/klex/klex/nfa"
)

// StateID identifies a DFA state, dense in [0, n).
type StateID int

// InvalidState is the table entry for a dead ("no such transition")
// state, matching the historical `F` sentinel.
const InvalidState StateID = -1

// Config bounds a subset-construction run and selects its input
// alphabet width.
type Config struct {
	// MaxStates caps how many DFA states subset construction may
	// produce before failing with TooManyStatesError.
	MaxStates int
	// AlphabetSize is the number of distinct input bytes the
	// transition table has columns for: 128 for 7-bit grammars, 256
	// for full 8-bit ones.
	AlphabetSize int
}

// DefaultConfig mirrors the historical DFA_MAX/MAX_CHARS limits.
func DefaultConfig() Config {
	return Config{MaxStates: 254, AlphabetSize: 128}
}

// WithMaxStates returns a copy of c with MaxStates set.
func (c Config) WithMaxStates(n int) Config {
	c.MaxStates = n
	return c
}

// WithAlphabetSize returns a copy of c with AlphabetSize set.
func (c Config) WithAlphabetSize(n int) Config {
	c.AlphabetSize = n
	return c
}

// Validate reports whether c describes a usable subset-construction
// run.
func (c Config) Validate() error {
	if c.MaxStates <= 0 {
		return fmt.Errorf("dfa: MaxStates must be positive, got %d", c.MaxStates)
	}
	if c.AlphabetSize <= 0 || c.AlphabetSize > 256 {
		return fmt.Errorf("dfa: AlphabetSize must be in (0, 256], got %d", c.AlphabetSize)
	}
	return nil
}

// TooManyStatesError reports subset construction exceeding
// Config.MaxStates.
type TooManyStatesError struct {
	Max int
}

func (e *TooManyStatesError) Error() string {
	return fmt.Sprintf("dfa: too many states (limit %d)", e.Max)
}

// State is one DFA state: the set of NFA states it represents, plus
// whichever accept metadata the lowest-numbered accepting NFA state in
// that set carries (tie-break: the earliest-declared rule wins).
type State struct {
	ID     StateID
	NFASet *bitset.BitSet
	Accept *nfa.Accept
	marked bool
}

// IsAccepting reports whether this state accepts a rule.
func (s *State) IsAccepting() bool { return s.Accept != nil }

// DFA is the completed transition table and its states, indexed by
// StateID.
type DFA struct {
	States []*State
	// Trans[s][c] is the StateID reached from state s on input byte
	// c, or InvalidState if there is no such transition.
	Trans        [][]StateID
	AlphabetSize int
	Start        StateID
}
