package effects

// Kind discriminates Value variants.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

// Value is the generic datum flowing through the effect pipeline.
type Value struct {
	kind Kind
	i    int
	f    float64
	b    bool
	s    string
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Int wraps an int.
func Int(n int) Value { return Value{kind: KindInt, i: n} }

// Float wraps a float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the variant of the value.
func (v Value) Kind() Kind { return v.kind }

// AsInt converts to int, truncating floats.
func (v Value) AsInt() (int, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int(v.f), true
	}
	return 0, false
}

// AsFloat converts to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// AsBool returns the boolean variant.
func (v Value) AsBool() (bool, bool) {
	if v.kind == KindBool {
		return v.b, true
	}
	return false, false
}

// AsString returns the string variant.
func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}
