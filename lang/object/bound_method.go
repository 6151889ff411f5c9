package object

import (
	"ember/lang/value"
)

// BoundMethod pairs a receiver value with a closure, produced by
// GET_PROPERTY when the named attribute resolves to a method rather than
// a field.
type BoundMethod struct {
	header
	Receiver value.Value
	Method   *Closure
}

var (
	_ Obj       = (*BoundMethod)(nil)
	_ Traceable = (*BoundMethod)(nil)
)

func (b *BoundMethod) String() string { return b.Method.Function.String() }
func (b *BoundMethod) Type() string   { return "bound method" }

func (b *BoundMethod) Trace(mark func(value.Value)) {
	mark(b.Receiver)
	mark(b.Method)
}
