// Package keypad maps button labels to calculator inputs.
//
// The calculator engine only ever sees calc.Input values. Everything that
// concerns how keys are labelled or laid out lives here, so shells (CLI,
// HTTP, MCP) share one mapping.
package keypad

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/abacus/pkg/calc"
)

// ErrUnknownKey is returned for labels that do not name a key.
var ErrUnknownKey = errors.New("unknown key")

// Role groups buttons by function.
type Role string

const (
	RoleFunction Role = "function"
	RoleDigit    Role = "digit"
	RoleOperator Role = "operator"
)

// Button is one key on the keypad.
type Button struct {
	Label string     `json:"label"`
	Input calc.Input `json:"-"`
	Role  Role       `json:"role"`
	// Wide buttons span two columns.
	Wide bool `json:"wide,omitempty"`
}

func digit(n int) Button {
	return Button{Label: calc.Digit(n).String(), Input: calc.Digit(n), Role: RoleDigit, Wide: n == 0}
}

func fn(in calc.Input) Button {
	return Button{Label: in.String(), Input: in, Role: RoleFunction}
}

func op(in calc.Input) Button {
	return Button{Label: in.String(), Input: in, Role: RoleOperator}
}

// Layout returns the keypad rows, top to bottom.
func Layout() [][]Button {
	return [][]Button{
		{fn(calc.AllClear), fn(calc.SignFlip), fn(calc.Percent), op(calc.Divide)},
		{digit(7), digit(8), digit(9), op(calc.Multiply)},
		{digit(4), digit(5), digit(6), op(calc.Subtract)},
		{digit(1), digit(2), digit(3), op(calc.Add)},
		{digit(0), {Label: calc.Point.String(), Input: calc.Point, Role: RoleDigit}, op(calc.Equals)},
	}
}

// aliases maps lower-cased alternative spellings to inputs.
var aliases = map[string]calc.Input{
	".":     calc.Point,
	",":     calc.Point,
	"+":     calc.Add,
	"-":     calc.Subtract,
	"−":     calc.Subtract,
	"×":     calc.Multiply,
	"*":     calc.Multiply,
	"x":     calc.Multiply,
	"÷":     calc.Divide,
	"/":     calc.Divide,
	"=":     calc.Equals,
	"%":     calc.Percent,
	"+/-":   calc.SignFlip,
	"±":     calc.SignFlip,
	"neg":   calc.SignFlip,
	"ac":    calc.AllClear,
	"c":     calc.AllClear,
	"clear": calc.AllClear,
}

// Parse returns the input named by label.
func Parse(label string) (calc.Input, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return calc.Digit(int(key[0] - '0')), nil
	}
	if in, ok := aliases[key]; ok {
		return in, nil
	}
	return calc.Input{}, fmt.Errorf("%w: %q", ErrUnknownKey, label)
}

// ParseAll parses each label in order.
func ParseAll(labels []string) ([]calc.Input, error) {
	if len(labels) > MaxSequenceBytes {
		return nil, fmt.Errorf("%w: %d keys, limit %d", ErrSequenceTooLong, len(labels), MaxSequenceBytes)
	}
	inputs := make([]calc.Input, 0, len(labels))
	for _, label := range labels {
		in, err := Parse(label)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// multiKeys are labels longer than one character, longest first.
var multiKeys = []string{"clear", "+/-", "neg", "ac"}

// MaxSequenceBytes bounds the key strings ParseSequence accepts.
const MaxSequenceBytes = 16 << 10

// ErrSequenceTooLong is returned for key strings over MaxSequenceBytes.
var ErrSequenceTooLong = errors.New("key sequence too long")

// ParseSequence splits a key string such as "12.5 × 2 =" into inputs.
// Every digit or point is one key press. Whitespace is ignored.
func ParseSequence(s string) ([]calc.Input, error) {
	if len(s) > MaxSequenceBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrSequenceTooLong, len(s), MaxSequenceBytes)
	}

	var inputs []calc.Input
	rest := s
	for rest != "" {
		r, size := utf8.DecodeRuneInString(rest)
		if unicode.IsSpace(r) {
			rest = rest[size:]
			continue
		}

		matched := false
		for _, k := range multiKeys {
			if len(rest) >= len(k) && strings.EqualFold(rest[:len(k)], k) {
				inputs = append(inputs, aliases[k])
				rest = rest[len(k):]
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		in, err := Parse(rest[:size])
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
		rest = rest[size:]
	}
	return inputs, nil
}

// Text renders rows as a plain-text grid, one line per row.
func Text(rows [][]Button) string {
	var sb strings.Builder
	for _, row := range rows {
		for i, b := range row {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if b.Wide {
				fmt.Fprintf(&sb, "[%-7s]", b.Label)
			} else {
				fmt.Fprintf(&sb, "[%s]", b.Label)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
