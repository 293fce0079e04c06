package keypad

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/abacus/pkg/calc"
)

func TestLayout(t *testing.T) {
	rows := Layout()
	require.Len(t, rows, 5)

	var labels []string
	for _, row := range rows {
		for _, b := range row {
			labels = append(labels, b.Label)
			assert.True(t, b.Input.Valid(), "button %q should map to a valid input", b.Label)
			assert.Equal(t, b.Label, b.Input.String())
		}
	}

	assert.Equal(t, []string{
		"AC", "+/-", "%", "÷",
		"7", "8", "9", "×",
		"4", "5", "6", "-",
		"1", "2", "3", "+",
		"0", ".", "=",
	}, labels)

	assert.True(t, rows[4][0].Wide, "zero spans two columns")
	assert.Equal(t, RoleOperator, rows[0][3].Role)
	assert.Equal(t, RoleFunction, rows[0][0].Role)
	assert.Equal(t, RoleDigit, rows[1][0].Role)
}

func TestParse(t *testing.T) {
	tests := []struct {
		label string
		want  calc.Input
	}{
		{"7", calc.Digit(7)},
		{" 0 ", calc.Digit(0)},
		{".", calc.Point},
		{"*", calc.Multiply},
		{"x", calc.Multiply},
		{"×", calc.Multiply},
		{"/", calc.Divide},
		{"÷", calc.Divide},
		{"−", calc.Subtract},
		{"±", calc.SignFlip},
		{"+/-", calc.SignFlip},
		{"AC", calc.AllClear},
		{"Clear", calc.AllClear},
		{"=", calc.Equals},
		{"%", calc.Percent},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Parse(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, label := range []string{"", "sqrt", "12", "^"} {
		_, err := Parse(label)
		assert.ErrorIs(t, err, ErrUnknownKey, "label %q", label)
	}
}

func TestParseSequence(t *testing.T) {
	inputs, err := ParseSequence("12.5 × 2 =")
	require.NoError(t, err)
	assert.Equal(t, []calc.Input{
		calc.Digit(1), calc.Digit(2), calc.Point, calc.Digit(5),
		calc.Multiply, calc.Digit(2), calc.Equals,
	}, inputs)

	inputs, err = ParseSequence("5+/-AC3")
	require.NoError(t, err)
	assert.Equal(t, []calc.Input{calc.Digit(5), calc.SignFlip, calc.AllClear, calc.Digit(3)}, inputs)

	inputs, err = ParseSequence("   ")
	require.NoError(t, err)
	assert.Empty(t, inputs)

	_, err = ParseSequence("2^3")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestParseSequence_Evaluates(t *testing.T) {
	inputs, err := ParseSequence("0.1+0.2=")
	require.NoError(t, err)

	s := calc.Apply(calc.Initial(), inputs...)
	assert.Equal(t, "0.3", calc.Display(s))
}

func TestParseAll(t *testing.T) {
	inputs, err := ParseAll([]string{"9", "÷", "3", "="})
	require.NoError(t, err)
	assert.Equal(t, "3", calc.Display(calc.Apply(calc.Initial(), inputs...)))

	_, err = ParseAll([]string{"9", "mod"})
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestText(t *testing.T) {
	want := "[AC] [+/-] [%] [÷]\n" +
		"[7] [8] [9] [×]\n" +
		"[4] [5] [6] [-]\n" +
		"[1] [2] [3] [+]\n" +
		"[0      ] [.] [=]\n"
	assert.Equal(t, want, Text(Layout()))
}

func TestParseSequence_MixedCaseWords(t *testing.T) {
	inputs, err := ParseSequence("7 NEG Clear 4 aC")
	require.NoError(t, err)
	assert.Equal(t, []calc.Input{calc.Digit(7), calc.SignFlip, calc.AllClear, calc.Digit(4), calc.AllClear}, inputs)

	// A multi-byte rune right before a word boundary
	inputs, err = ParseSequence("6÷neg")
	require.NoError(t, err)
	assert.Equal(t, []calc.Input{calc.Digit(6), calc.Divide, calc.SignFlip}, inputs)
}

func TestParseSequence_Limit(t *testing.T) {
	inputs, err := ParseSequence(strings.Repeat("1", MaxSequenceBytes))
	require.NoError(t, err)
	assert.Len(t, inputs, MaxSequenceBytes)

	_, err = ParseSequence(strings.Repeat("1", MaxSequenceBytes+1))
	assert.ErrorIs(t, err, ErrSequenceTooLong)

	_, err = ParseAll(make([]string, MaxSequenceBytes+1))
	assert.ErrorIs(t, err, ErrSequenceTooLong)
}
