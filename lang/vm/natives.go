package vm

import (
	"time"

	"ember/lang/object"
	"ember/lang/value"
)

// defineNatives installs the host-provided functions into the globals
// table: a bare global binding to a Native value, not a reserved keyword
// or special call form.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", vm.nativeClock)
}

func (vm *VM) defineNative(name string, fn object.NativeFn) {
	str := vm.heap.InternString(name)
	native := vm.heap.NewNative(name, fn)
	vm.globals.Set(str, native)
}

// nativeClock returns the wall-clock seconds elapsed since the VM was
// constructed (not CPU time), so two calls bracket a region of script
// execution for timing. Natives carry no arity, so clock ignores whatever arguments a
// program passes it rather than erroring on argCount != 0.
func (vm *VM) nativeClock(argCount int, args []value.Value) (value.Value, error) {
	return value.Number(time.Since(vm.startTime).Seconds()), nil
}
