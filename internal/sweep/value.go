package sweep

import (
	"strconv"
)

// Value is one generated setting: a number, or text copied verbatim.
type Value struct {
	num    float64
	text   string
	isText bool
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{num: f}
}

// Text returns a verbatim text value.
func Text(s string) Value {
	return Value{text: s, isText: true}
}

// Float returns the numeric value. Text that parses as a float also converts.
func (v Value) Float() (float64, bool) {
	if !v.isText {
		return v.num, true
	}
	f, err := strconv.ParseFloat(v.text, 64)
	return f, err == nil
}

// IsText reports whether the value is text.
func (v Value) IsText() bool {
	return v.isText
}

// String formats the value as an input file token.
func (v Value) String() string {
	if v.isText {
		return v.text
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

func broadcast(v Value, runs int) []Value {
	out := make([]Value, runs)
	for i := range out {
		out[i] = v
	}
	return out
}
