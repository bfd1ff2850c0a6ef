package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a single cell.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Value is one cell of a RowSet. The zero Value is missing.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

func Missing() Value     { return Value{} }
func Str(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value  { return Value{kind: KindInt, i: i} }

// Float returns a float value. NaN is stored as missing.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{kind: KindFloat, f: f}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// AsString returns the string payload; ok is false for non-string kinds.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsInt returns the integer payload; ok is false for non-integer kinds.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the numeric payload of integer and float values.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// String renders the value the way it reads in a delimited file. Missing
// values render as "nan".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	default:
		return "nan"
	}
}

// Equal reports whether two values are equal. Missing values are never equal
// to anything, including other missing values. Integers and floats compare
// numerically; strings never equal numbers.
func (v Value) Equal(o Value) bool {
	if v.kind == KindMissing || o.kind == KindMissing {
		return false
	}
	if v.kind == KindString || o.kind == KindString {
		return v.kind == o.kind && v.s == o.s
	}
	if v.kind == KindInt && o.kind == KindInt {
		return v.i == o.i
	}
	a, _ := v.AsFloat()
	b, _ := o.AsFloat()
	return a == b
}

// Key returns an identity usable as a map key. Unlike Equal, all missing
// values share one key, so duplicate detection treats them as repeats.
func (v Value) Key() string {
	switch v.kind {
	case KindString:
		return "s:" + v.s
	case KindInt:
		return "n:" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<53 {
			return "n:" + strconv.FormatInt(int64(v.f), 10)
		}
		return "n:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return "na"
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
