// Package object implements the heap object model: every heap-allocated
// value kind (String, Function, Closure, Upvalue, Native, Class,
// Instance, BoundMethod), each carrying a GC mark bit and an intrusive
// "next in all-objects list" link, plus the Heap that owns allocation,
// string interning and the all-objects list swept by lang/gc.
package object

import "ember/lang/value"

// Obj is implemented by every heap object kind. The collector (lang/gc)
// operates purely in terms of this interface and Traceable, never on
// concrete object types, so adding a new object kind never requires
// touching the collector.
type Obj interface {
	value.Value

	IsMarked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
	Size() int
	SetSize(int)
}

// Traceable is implemented by heap objects that hold references to other
// values. Trace calls mark once per outgoing edge, per the type's own
// edge list. Object kinds with no outgoing edges (String, Native) do
// not implement it.
type Traceable interface {
	Trace(mark func(value.Value))
}

// header is embedded by every concrete object type to supply the Obj
// bookkeeping fields without repeating them.
type header struct {
	marked bool
	next   Obj
	size   int
}

func (h *header) IsMarked() bool { return h.marked }
func (h *header) SetMarked(m bool) { h.marked = m }
func (h *header) Next() Obj { return h.next }
func (h *header) SetNext(o Obj) { h.next = o }
func (h *header) Size() int { return h.size }
func (h *header) SetSize(size int) { h.size = size }
