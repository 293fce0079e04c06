package calc

import "fmt"

// Operator is the operator awaiting application.
type Operator int

const (
	// OpNone means no operator has been chosen yet.
	OpNone Operator = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	// OpEquals marks that the last action was a completed evaluation.
	OpEquals
)

// String returns the string representation of an operator.
func (o Operator) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpAdd:
		return "add"
	case OpSubtract:
		return "subtract"
	case OpMultiply:
		return "multiply"
	case OpDivide:
		return "divide"
	case OpEquals:
		return "equals"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	if o < OpNone || o > OpEquals {
		return nil, fmt.Errorf("invalid operator %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "none":
		*o = OpNone
	case "add":
		*o = OpAdd
	case "subtract":
		*o = OpSubtract
	case "multiply":
		*o = OpMultiply
	case "divide":
		*o = OpDivide
	case "equals":
		*o = OpEquals
	default:
		return fmt.Errorf("unknown operator %q", string(text))
	}
	return nil
}

// State is a complete calculator state. It is a comparable value and is
// never mutated by this package: every transition returns a new State.
type State struct {
	// Accumulator is the left-hand operand retained across steps.
	Accumulator string `json:"accumulator"`

	// Operand is the right-hand operand as typed.
	Operand string `json:"operand"`

	Pending Operator `json:"pending"`

	// JustCommitted is set after an operator or "=" is accepted and
	// cleared by the next digit. It selects the displayed value.
	JustCommitted bool `json:"just_committed"`
}

// Initial returns the state of a freshly cleared calculator.
func Initial() State {
	return State{
		Accumulator: "0",
		Operand:     "0",
		Pending:     OpNone,
	}
}

// Display returns the value the calculator currently shows.
func Display(s State) string {
	if s.JustCommitted {
		return s.Accumulator
	}
	return s.Operand
}
