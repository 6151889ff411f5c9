package object

import (
	"fmt"

	"ember/lang/chunk"
	"ember/lang/value"
)

// Function is a compiled code unit: a chunk, its declared arity, upvalue
// count, and an optional name. The top-level program is represented as a
// nameless Function whose chunk is the module body.
type Function struct {
	header
	Name         *String // nil for the top-level script
	Arity        int
	UpvalueCount int
	Chunk        chunk.Chunk
}

var (
	_ Obj       = (*Function)(nil)
	_ Traceable = (*Function)(nil)
)

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}
func (f *Function) Type() string { return "function" }

func (f *Function) Trace(mark func(value.Value)) {
	if f.Name != nil {
		mark(f.Name)
	}
	for _, c := range f.Chunk.Constants {
		mark(c)
	}
}
