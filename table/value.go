package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a [Value] holds.
type Kind uint8

const (
	// KindNull is an absent value.
	KindNull Kind = iota
	// KindNumber is a float64.
	KindNumber
	// KindText is an uncoerced string.
	KindText
)

// Value is one table cell. The zero Value is null.
type Value struct {
	text string
	num  float64
	kind Kind
}

// Null returns the null [Value].
func Null() Value { return Value{} }

// Number returns a numeric [Value].
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a text [Value].
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Kind reports what v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the number held by v, if any.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders v the way it is displayed and exported: null is empty,
// numbers use the shortest representation that round-trips and always carry
// a fractional part or exponent ("123456.0", "3.92", "1e+16").
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatFloat(v.num)
	case KindText:
		return v.text
	case KindNull:
	}

	return ""
}

// MarshalJSON encodes null as null, numbers as JSON numbers (NaN and
// infinities as null) and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// MarshalYAML implements the goccy/go-yaml InterfaceMarshaler.
func (v Value) MarshalYAML() (any, error) {
	return v.Any(), nil
}

// Any returns v as nil, float64 or string. Non-finite numbers become nil.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil
		}

		return v.num
	case KindText:
		return v.text
	case KindNull:
	}

	return nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
