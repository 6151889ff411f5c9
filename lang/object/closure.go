package object

import (
	"ember/lang/value"
)

// Closure pairs a Function with the upvalues it captured at creation
// time. len(Upvalues) always equals Function.UpvalueCount.
type Closure struct {
	header
	Function *Function
	Upvalues []*Upvalue
}

var (
	_ Obj       = (*Closure)(nil)
	_ Traceable = (*Closure)(nil)
)

// String delegates to the underlying Function so a closure prints exactly
// like a function value ("<fn NAME>"), since ember has no surface syntax
// that distinguishes the two.
func (c *Closure) String() string { return c.Function.String() }
func (c *Closure) Type() string   { return "closure" }

func (c *Closure) Trace(mark func(value.Value)) {
	mark(c.Function)
	for _, uv := range c.Upvalues {
		if uv != nil {
			mark(uv)
		}
	}
}
