// Package calc implements the calculator engine: a pure reducer from a
// current State and one Input to the next State, using exact decimal
// arithmetic.
//
// The engine has no error state. Division by zero yields 0, unparseable
// decimal text is read as 0, and inputs outside the alphabet leave the
// state unchanged.
package calc

import "strings"

// Transition returns the state that follows s after the input in.
func Transition(s State, in Input) State {
	switch in.kind {
	case KindDigit:
		return typeDigit(s, in.String())
	case KindPoint:
		return typePoint(s)
	case KindAllClear:
		return Initial()
	case KindAdd, KindSubtract, KindMultiply, KindDivide:
		op, _ := in.operator()
		return commitOperator(s, op)
	case KindEquals:
		return evaluate(s)
	case KindPercent:
		return updateActive(s, percent)
	case KindSignFlip:
		return updateActive(s, negate)
	default:
		return s
	}
}

// Apply folds inputs over s in order.
func Apply(s State, inputs ...Input) State {
	for _, in := range inputs {
		s = Transition(s, in)
	}
	return s
}

func typeDigit(s State, digit string) State {
	if s.Operand == "0" || s.Operand == "" {
		s.Operand = digit
	} else {
		s.Operand += digit
	}
	return startTyping(s)
}

func typePoint(s State) State {
	if s.Operand == "" {
		s.Operand = "0"
	}
	if !strings.Contains(s.Operand, ".") {
		s.Operand += "."
	}
	return startTyping(s)
}

// startTyping makes the operand active. Typing after "=" begins a new
// calculation, so the accumulator is discarded.
func startTyping(s State) State {
	if s.Pending == OpEquals {
		s.Accumulator = "0"
	}
	s.JustCommitted = false
	return s
}

func commitOperator(s State, op Operator) State {
	if s.JustCommitted {
		s.Pending = op
		return s
	}
	s.Accumulator = apply(s.Pending, s.Accumulator, s.Operand)
	s.Operand = "0"
	s.Pending = op
	s.JustCommitted = true
	return s
}

// evaluate handles "=". Pressing it with nothing arithmetic pending,
// including a second "=" in a row, changes nothing.
func evaluate(s State) State {
	switch s.Pending {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
	default:
		return s
	}
	s.Accumulator = apply(s.Pending, s.Accumulator, s.Operand)
	s.Operand = "0"
	s.Pending = OpEquals
	s.JustCommitted = true
	return s
}

func updateActive(s State, fn func(string) string) State {
	if s.JustCommitted {
		s.Accumulator = fn(s.Accumulator)
	} else {
		s.Operand = fn(s.Operand)
	}
	return s
}
