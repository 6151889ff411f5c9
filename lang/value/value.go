// Package value defines Value, the tagged sum every subsystem (chunk,
// object, table, compiler, vm) speaks: a double-precision number, a
// boolean, nil, or a reference to a heap object. It is the lowest-level
// package in the module's dependency order and must not import any
// other lang/ package.
package value

import "fmt"

// Value is the interface implemented by every value the machine
// manipulates: Number, Bool, Nil and every heap object kind defined by
// lang/object.
type Value interface {
	// String returns the canonical printed form of the value.
	String() string
	// Type returns a short, stable type name used in error messages.
	Type() string
}

// Number is an IEEE-754 double. There is no integer type.
type Number float64

func (n Number) String() string { return formatNumber(float64(n)) }
func (n Number) Type() string   { return "number" }

// formatNumber renders a finite float the way printf("%g", x) does in C:
// at most six significant digits, trailing zeros dropped. NaN and the
// infinities use Go's spelling (NaN, +Inf, -Inf).
func formatNumber(f float64) string {
	return fmt.Sprintf("%.6g", f)
}

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Type() string { return "bool" }

// Nil is the unit value. There is exactly one Nil value; use the NilValue
// constant rather than constructing one.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the singleton Nil value.
var NilValue = Nil{}

// True and False are the singleton Bool values, so that equality checks and
// opcodes that push literals never allocate.
const (
	True  = Bool(true)
	False = Bool(false)
)

// Truthy implements ember's falsey rule: nil and false are falsey,
// everything else (including 0 and "") is truthy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal implements the primitive equality rules. Object references
// (including strings, thanks to interning) compare by identity;
// callers pass the heap objects through unchanged so Go's == on the
// concrete pointer types does the right thing for everything that isn't a
// Number, Bool or Nil.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Number:
		bn, ok := b.(Number)
		if !ok {
			return false
		}
		// NaN compares unequal to everything, including itself.
		return float64(a) == float64(bn)
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Nil:
		_, ok := b.(Nil)
		return ok
	default:
		return a == b
	}
}
