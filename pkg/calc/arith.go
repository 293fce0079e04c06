package calc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DivisionScale is the number of fractional digits kept by division.
// Quotients are truncated toward zero at this scale.
const DivisionScale = 15

var negativeOne = decimal.NewFromInt(-1)

// parse converts decimal text to a Decimal. Text that cannot be parsed
// yields zero so the engine stays total. Exponent notation is not
// decimal text the keypad can produce and is rejected.
func parse(text string) decimal.Decimal {
	text = strings.TrimSuffix(text, ".")
	if text == "" || text == "-" || strings.ContainsAny(text, "eE") {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// canonical renders d without trailing fractional zeros and without a
// decimal point when d is integral.
func canonical(d decimal.Decimal) string {
	return d.String()
}

// apply evaluates left op right and returns the canonical result.
// OpNone and OpEquals pass right through unchanged.
func apply(op Operator, left, right string) string {
	switch op {
	case OpAdd:
		return canonical(parse(left).Add(parse(right)))
	case OpSubtract:
		return canonical(parse(left).Sub(parse(right)))
	case OpMultiply:
		return canonical(parse(left).Mul(parse(right)))
	case OpDivide:
		return divide(parse(left), parse(right))
	default:
		return right
	}
}

// divide truncates the quotient to DivisionScale digits. A zero divisor
// yields "0".
func divide(left, right decimal.Decimal) string {
	if right.IsZero() {
		return "0"
	}
	q, _ := left.QuoRem(right, DivisionScale)
	return canonical(q)
}

// percent divides text by 100. Shifting the exponent keeps it exact.
func percent(text string) string {
	return canonical(parse(text).Shift(-2))
}

// negate multiplies text by -1.
func negate(text string) string {
	return canonical(parse(text).Mul(negativeOne))
}
