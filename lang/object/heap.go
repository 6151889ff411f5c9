package object

import (
	"ember/lang/table"
	"ember/lang/value"
)

// RootFunc is called during mark phase with a mark callback; it must call
// mark once for every value.Value the provider considers a GC root.
// VM registers one root source covering the stack, call
// frames, open upvalues, globals and the interned "init" string; the
// compiler temporarily registers one more while a Compile call is
// in-flight, covering its in-progress function chain.
type RootFunc func(mark func(value.Value))

// Heap owns the all-objects list, the string-interning table and the
// allocation accounting that decides when lang/gc should run a
// collection. It does not implement mark-sweep itself;
// lang/gc.Collector does, using only Heap's exported surface plus the Obj
// and Traceable interfaces, so adding an object kind never touches the
// collector and changing collection policy never touches this package.
type Heap struct {
	head Obj

	bytesAllocated uint64
	nextGC         uint64
	// GrowFactor scales bytesAllocated into the next collection threshold
	// after a cycle (EMBER_GC_GROW_FACTOR).
	GrowFactor float64

	// Strings is the weak interning table: a collection never marks its
	// entries as roots, so an interned string with no other reference is
	// freed and its entry here is pruned by the collector's weak-set
	// cleanup.
	Strings *table.Table[string, *String]

	roots []RootFunc
}

// NewHeap returns an empty heap with a 1 MiB initial collection
// threshold.
func NewHeap() *Heap {
	h := &Heap{
		nextGC:     1 << 20,
		GrowFactor: 2.0,
	}
	h.Strings = table.New[string, *String](hashGoString)
	h.Strings.BeforeGrow = func(newCap int) { h.accountBytes(newCap * internStringEntrySize) }
	return h
}

func hashGoString(s string) uint32 { return HashString(s) }

// approximate per-kind sizes used purely for GC-trigger accounting; they
// need not be exact, only proportional, since the only requirement is
// that "bytesAllocated > nextGC" triggers a cycle.
const (
	internStringEntrySize = 32
	baseObjSize           = 48
)

// Head returns the first object in the all-objects list, or nil if the
// heap is empty. Used by lang/gc to walk the list during sweep.
func (h *Heap) Head() Obj { return h.head }

func (h *Heap) BytesAllocated() uint64 { return h.bytesAllocated }
func (h *Heap) NextGC() uint64         { return h.nextGC }
func (h *Heap) SetNextGC(n uint64) { h.nextGC = n }

// accountBytes records out-of-band growth (e.g. the intern table
// resizing) against the next-collection threshold; Track accounts for
// new objects the same way.
func (h *Heap) accountBytes(n int) { h.bytesAllocated += uint64(n) }

// ReleaseBytes is called by lang/gc's sweep for every object it frees, so
// bytesAllocated reflects live heap size rather than growing forever.
func (h *Heap) ReleaseBytes(n int) {
	if uint64(n) > h.bytesAllocated {
		h.bytesAllocated = 0
		return
	}
	h.bytesAllocated -= uint64(n)
}

// Track links obj into the all-objects list and accounts size bytes
// against the next-collection threshold. Every constructor in this file
// calls Track exactly once; callers must not call it themselves.
func (h *Heap) Track(obj Obj, size int) {
	obj.SetNext(h.head)
	obj.SetSize(size)
	h.head = obj
	h.accountBytes(size)
}

// SetHead is used only by lang/gc's sweep to install the post-sweep list.
func (h *Heap) SetHead(o Obj) { h.head = o }

// AddRootSource registers fn as a GC root provider and returns a function
// that unregisters it. The compiler uses the returned remove func to pop
// its compiler-roots source once a Compile call finishes.
func (h *Heap) AddRootSource(fn RootFunc) (remove func()) {
	h.roots = append(h.roots, fn)
	idx := len(h.roots) - 1
	return func() { h.roots[idx] = nil }
}

// EachRoot invokes every live root source, in registration order.
func (h *Heap) EachRoot(mark func(value.Value)) {
	for _, fn := range h.roots {
		if fn != nil {
			fn(mark)
		}
	}
}

// InternString returns the canonical *String for chars, allocating and
// tracking a new one only if content is not already interned, so that two
// strings with equal content are always the same heap object.
func (h *Heap) InternString(chars string) *String {
	if s, ok := h.Strings.Get(chars); ok {
		return s
	}
	s := &String{Chars: chars, Hash: HashString(chars)}
	h.Track(s, baseObjSize+len(chars))
	h.Strings.Set(chars, s)
	return s
}

// NewFunction allocates an empty Function named name (nil for the
// top-level script).
func (h *Heap) NewFunction(name *String) *Function {
	f := &Function{Name: name}
	h.Track(f, baseObjSize)
	return f
}

// NewClosure allocates a Closure over fn with upvalueCount empty upvalue
// slots, to be filled in by the CLOSURE opcode handler.
func (h *Heap) NewClosure(fn *Function) *Closure {
	c := &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	h.Track(c, baseObjSize+8*fn.UpvalueCount)
	return c
}

// NewUpvalue allocates an open upvalue aliasing the stack slot at index.
func (h *Heap) NewUpvalue(slot *value.Value, index int) *Upvalue {
	u := NewUpvalue(slot, index)
	h.Track(u, baseObjSize)
	return u
}

// NewNative allocates a native function value.
func (h *Heap) NewNative(name string, fn NativeFn) *Native {
	n := &Native{Name: name, Fn: fn}
	h.Track(n, baseObjSize)
	return n
}

// NewClass allocates an empty class named name.
func (h *Heap) NewClass(name *String) *Class {
	c := NewClass(name)
	h.Track(c, baseObjSize)
	return c
}

// NewInstance allocates an instance of class with no fields set.
func (h *Heap) NewInstance(class *Class) *Instance {
	i := NewInstance(class)
	h.Track(i, baseObjSize)
	return i
}

// NewBoundMethod allocates a bound method pairing receiver and method.
func (h *Heap) NewBoundMethod(receiver value.Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	h.Track(b, baseObjSize)
	return b
}
