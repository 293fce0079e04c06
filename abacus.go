// Package abacus is a four-function calculator with exact decimal
// arithmetic.
//
// The engine in pkg/calc is a pure reducer: a calculator State and one
// key press produce the next State. This package wraps it for callers
// that only want an answer:
//
//	display, err := abacus.Evaluate("0.1 + 0.2 =")
//	// display == "0.3"
//
// Stateful use (one press at a time) goes through calc.Transition, or
// through pkg/session when state must be shared or persisted.
package abacus

import (
	"github.com/ternarybob/abacus/pkg/calc"
	"github.com/ternarybob/abacus/pkg/keypad"
)

// Evaluate presses keys on a freshly cleared calculator and returns the
// display. Keys use the labels accepted by keypad.ParseSequence.
func Evaluate(keys string) (string, error) {
	state, err := Run(calc.Initial(), keys)
	if err != nil {
		return "", err
	}
	return calc.Display(state), nil
}

// Run presses keys starting from state and returns the resulting state.
// state is not modified.
func Run(state calc.State, keys string) (calc.State, error) {
	inputs, err := keypad.ParseSequence(keys)
	if err != nil {
		return state, err
	}
	return calc.Apply(state, inputs...), nil
}
