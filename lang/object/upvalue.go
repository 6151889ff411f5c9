package object

import "ember/lang/value"

// Upvalue is a reference cell standing in for a captured local variable.
// While open, Location points into the VM's value stack; Close hoists the
// value into Closed and repoints Location there, so reads/writes through
// Location are correct in either state.
type Upvalue struct {
	header
	Location *value.Value
	Closed   value.Value

	// NextOpen links this upvalue into the VM-wide open-upvalues list,
	// which the VM keeps sorted by descending stack-slot address. Only
	// meaningful while the upvalue is open; the VM clears it on Close.
	NextOpen *Upvalue

	// Slot is the stack index Location aliased at capture time. Go gives
	// no ordering comparison on pointers, so the VM threads this plain
	// int through instead of pointer arithmetic to keep the open-upvalues
	// list sorted.
	Slot int
}

var (
	_ Obj       = (*Upvalue)(nil)
	_ Traceable = (*Upvalue)(nil)
)

func (u *Upvalue) String() string { return "upvalue" }
func (u *Upvalue) Type() string   { return "upvalue" }

func (u *Upvalue) Trace(mark func(value.Value)) {
	// Safe whether open or closed: while open, Location aliases a stack
	// slot that the VM's own stack root already covers; while closed, it
	// aliases Closed, owned by this object.
	if u.Location != nil {
		mark(*u.Location)
	}
}

// Get reads the current value, open or closed.
func (u *Upvalue) Get() value.Value { return *u.Location }

// SetValue writes through to the current location, open or closed.
func (u *Upvalue) SetValue(v value.Value) { *u.Location = v }

// IsOpen reports whether this upvalue still aliases a live stack slot.
func (u *Upvalue) IsOpen() bool { return u.Location != &u.Closed }

// Close hoists the current value into the upvalue's own storage and
// repoints Location at it, detaching it from the stack.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
	u.NextOpen = nil
}

// NewUpvalue creates an open upvalue aliasing the stack slot at the given
// index.
func NewUpvalue(slot *value.Value, slotIndex int) *Upvalue {
	return &Upvalue{Location: slot, Slot: slotIndex}
}
