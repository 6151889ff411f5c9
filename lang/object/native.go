package object

import (
	"fmt"

	"ember/lang/value"
)

// NativeFn is the native-function ABI: given the argument count and a
// slice of the arguments, return a value (or an error, which the VM
// turns into a runtime error).
type NativeFn func(argCount int, args []value.Value) (value.Value, error)

// Native is a host procedure exposed to ember programs. It has no
// outgoing references, so it does not implement Traceable.
type Native struct {
	header
	Name string
	Fn   NativeFn
}

var _ Obj = (*Native)(nil)

func (n *Native) String() string { return fmt.Sprintf("<native %s>", n.Name) }
func (n *Native) Type() string   { return "native" }
