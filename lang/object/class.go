package object

import (
	"ember/lang/table"
	"ember/lang/value"
)

// hashInternedString hashes a table key that is an interned *String by its
// cached content hash. Collisions between distinct interned strings are
// resolved by the table's own probing plus pointer equality, since K is
// *String (comparable by identity).
func hashInternedString(s *String) uint32 { return s.Hash }

// NewMethodTable returns a table keyed by interned strings, used for every
// internal hash table of the engine keyed by names (globals, methods,
// fields).
func NewMethodTable() *table.Table[*String, value.Value] {
	return table.New[*String, value.Value](hashInternedString)
}

// Class is a name, a method table (interned name -> Closure-valued
// Value) and an optional superclass reference.
type Class struct {
	header
	Name       *String
	Superclass *Class
	Methods    *table.Table[*String, value.Value]
}

var (
	_ Obj       = (*Class)(nil)
	_ Traceable = (*Class)(nil)
)

// NewClass returns an empty class named name.
func NewClass(name *String) *Class {
	return &Class{Name: name, Methods: NewMethodTable()}
}

func (c *Class) String() string { return c.Name.Chars }
func (c *Class) Type() string   { return "class" }

func (c *Class) Trace(mark func(value.Value)) {
	mark(c.Name)
	if c.Superclass != nil {
		mark(c.Superclass)
	}
	// Keys are marked too: the interning table holds them only weakly, so
	// a method table must keep its own name strings alive.
	c.Methods.Each(func(k *String, v value.Value) {
		mark(k)
		mark(v)
	})
}

// FindMethod looks up name in this class's own method table (which, after
// SUBCLASS, already contains a snapshot of every inherited method).
func (c *Class) FindMethod(name *String) (value.Value, bool) {
	return c.Methods.Get(name)
}
