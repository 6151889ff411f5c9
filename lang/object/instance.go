package object

import (
	"fmt"

	"ember/lang/table"
	"ember/lang/value"
)

// Instance is a class reference plus a fields table.
type Instance struct {
	header
	Class  *Class
	Fields *table.Table[*String, value.Value]
}

var (
	_ Obj       = (*Instance)(nil)
	_ Traceable = (*Instance)(nil)
)

// NewInstance returns a fresh instance of class with no fields set.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: NewMethodTable()}
}

func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }
func (i *Instance) Type() string   { return "instance" }

func (i *Instance) Trace(mark func(value.Value)) {
	mark(i.Class)
	// As in Class.Trace, field-name keys are marked so the weak interning
	// table cannot prune a name this instance still uses.
	i.Fields.Each(func(k *String, v value.Value) {
		mark(k)
		mark(v)
	})
}
