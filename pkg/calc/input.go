package calc

// Kind identifies the category of an input symbol.
type Kind uint8

const (
	// KindInvalid is the zero Kind. Inputs of this kind are ignored.
	KindInvalid Kind = iota
	KindDigit
	KindPoint
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindEquals
	KindPercent
	KindSignFlip
	KindAllClear
)

// String returns the string representation of a kind.
func (k Kind) String() string {
	switch k {
	case KindDigit:
		return "digit"
	case KindPoint:
		return "point"
	case KindAdd:
		return "add"
	case KindSubtract:
		return "subtract"
	case KindMultiply:
		return "multiply"
	case KindDivide:
		return "divide"
	case KindEquals:
		return "equals"
	case KindPercent:
		return "percent"
	case KindSignFlip:
		return "sign_flip"
	case KindAllClear:
		return "all_clear"
	default:
		return "invalid"
	}
}

// Input is a single key press. Its fields are unexported so only the
// constructors below can produce a valid symbol; the zero value is invalid
// and Transition treats it as a no-op.
type Input struct {
	kind  Kind
	digit uint8
}

// Predefined non-digit inputs.
var (
	Point    = Input{kind: KindPoint}
	Add      = Input{kind: KindAdd}
	Subtract = Input{kind: KindSubtract}
	Multiply = Input{kind: KindMultiply}
	Divide   = Input{kind: KindDivide}
	Equals   = Input{kind: KindEquals}
	Percent  = Input{kind: KindPercent}
	SignFlip = Input{kind: KindSignFlip}
	AllClear = Input{kind: KindAllClear}
)

// Digit returns the input for the decimal digit n.
// Values outside 0-9 yield the invalid input.
func Digit(n int) Input {
	if n < 0 || n > 9 {
		return Input{}
	}
	return Input{kind: KindDigit, digit: uint8(n)}
}

// Kind returns the category of the input.
func (in Input) Kind() Kind {
	return in.kind
}

// Value returns the digit value for digit inputs and 0 otherwise.
func (in Input) Value() int {
	return int(in.digit)
}

// Valid reports whether the input belongs to the calculator alphabet.
func (in Input) Valid() bool {
	return in.kind != KindInvalid
}

// String returns the keypad label of the input.
func (in Input) String() string {
	switch in.kind {
	case KindDigit:
		return string(rune('0' + in.digit))
	case KindPoint:
		return "."
	case KindAdd:
		return "+"
	case KindSubtract:
		return "-"
	case KindMultiply:
		return "×"
	case KindDivide:
		return "÷"
	case KindEquals:
		return "="
	case KindPercent:
		return "%"
	case KindSignFlip:
		return "+/-"
	case KindAllClear:
		return "AC"
	default:
		return ""
	}
}

// operator maps binary operator inputs to their pending operator.
func (in Input) operator() (Operator, bool) {
	switch in.kind {
	case KindAdd:
		return OpAdd, true
	case KindSubtract:
		return OpSubtract, true
	case KindMultiply:
		return OpMultiply, true
	case KindDivide:
		return OpDivide, true
	default:
		return OpNone, false
	}
}
