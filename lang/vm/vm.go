// Package vm implements a stack-based bytecode virtual machine: the
// dispatch loop, call frames, the open-upvalue list, the globals table,
// and runtime error reporting. It is the one package that ties
// lang/compiler's output to lang/object's heap and lang/gc's collector
// into a running program.
package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"ember/lang/chunk"
	"ember/lang/compiler"
	"ember/lang/gc"
	"ember/lang/object"
	"ember/lang/table"
	"ember/lang/value"
)

// Config bounds and wires a VM instance. The zero value is not ready to
// use; call New, which applies defaults (16,384 stack slots, 64 call
// frames) to any field left unset.
type Config struct {
	MaxStackSlots    int
	MaxCallFrames    int
	GCStressTest     bool
	GCLogVerbose     bool
	GCHeapGrowFactor float64

	Stdout io.Writer
	Stderr io.Writer

	// DisassembleOnCompile, if set, writes a full disassembly of every
	// compiled chunk to Stderr before it runs: a debug aid, not core
	// interpreter semantics.
	DisassembleOnCompile bool
}

func (c Config) withDefaults() Config {
	if c.MaxStackSlots <= 0 {
		c.MaxStackSlots = 16384
	}
	if c.MaxCallFrames <= 0 {
		c.MaxCallFrames = 64
	}
	if c.GCHeapGrowFactor <= 0 {
		c.GCHeapGrowFactor = 2.0
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	return c
}

// frame is one in-progress function activation: its closure, current
// instruction pointer (an index into the closure's function's chunk),
// and the base slot of its region on the value stack.
type frame struct {
	closure *object.Closure
	ip      int
	slots   int
}

// VM executes compiled ember programs. It owns the heap, the GC
// collector, the value stack, the call-frame array, the globals table
// and the open-upvalues list — every VM-owned singleton is held as an
// explicit field rather than a process-wide global.
type VM struct {
	cfg Config

	heap *object.Heap
	gc   *gc.Collector

	// stack is preallocated at cfg.MaxStackSlots and never reallocated:
	// open upvalues hold a *value.Value pointing directly into this array,
	// and an append-driven grow would invalidate every such pointer.
	stack    []value.Value
	stackTop int

	frames     []frame
	frameCount int

	globals *table.Table[*object.String, value.Value]

	// openUpvalues is the head of the VM-wide open-upvalues list, kept
	// sorted by descending Slot.
	openUpvalues *object.Upvalue

	initString *object.String

	// startTime is the monotonic zero point the clock native measures
	// elapsed wall-clock time against.
	startTime time.Time
}

// New builds a VM ready to Interpret programs. It registers the VM's own
// root source (stack, frames, open upvalues, globals, the interned
// "init" string) and the native-function surface.
func New(cfg Config) *VM {
	cfg = cfg.withDefaults()

	heap := object.NewHeap()
	heap.GrowFactor = cfg.GCHeapGrowFactor

	vm := &VM{
		cfg:       cfg,
		heap:      heap,
		stack:     make([]value.Value, cfg.MaxStackSlots),
		frames:    make([]frame, cfg.MaxCallFrames),
		globals:   object.NewMethodTable(),
		startTime: time.Now(),
	}
	vm.initString = heap.InternString("init")

	vm.gc = &gc.Collector{Heap: heap, Stress: cfg.GCStressTest}
	if cfg.GCLogVerbose {
		vm.gc.Logger = cfg.Stderr
	}

	heap.AddRootSource(vm.markRoots)
	vm.defineNatives()
	return vm
}

// markRoots is the VM's GC root source: the value stack, the call-frame
// closures, the open-upvalues list, the globals table, and the interned
// "init" string.
func (vm *VM) markRoots(mark func(value.Value)) {
	for i := 0; i < vm.stackTop; i++ {
		mark(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		mark(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		mark(uv)
	}
	// Global names are roots too: the interning table is weak, and a
	// REPL's globals must keep their name strings alive across inputs.
	vm.globals.Each(func(k *object.String, v value.Value) {
		mark(k)
		mark(v)
	})
	mark(vm.initString)
}

// Interpret compiles and runs source as one program: the single entry
// point. Each call starts from a clean stack and frame set, so a REPL
// can call Interpret repeatedly on successive lines while the globals
// table persists across calls.
func (vm *VM) Interpret(source string) Result {
	fn, err := compiler.Compile(vm.heap, source)
	if err != nil {
		if errs, ok := err.(compiler.Errors); ok {
			for _, e := range errs {
				fmt.Fprintf(vm.cfg.Stderr, "%s\n", e)
			}
		} else {
			fmt.Fprintf(vm.cfg.Stderr, "%s\n", err)
		}
		return CompileError
	}

	if vm.cfg.DisassembleOnCompile {
		vm.disassembleAll(fn)
	}

	vm.resetStack()
	closure := vm.heap.NewClosure(fn)
	vm.push(closure)
	vm.gc.MaybeCollect()

	if res, ok := vm.call(closure, 0); !ok {
		return res
	}
	return vm.run()
}

// disassembleAll writes fn's chunk and, recursively, every nested
// function constant's chunk, to Stderr — the debug aid DisassembleOnCompile
// enables.
func (vm *VM) disassembleAll(fn *object.Function) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	fmt.Fprint(vm.cfg.Stderr, fn.Chunk.Disassemble(name))
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.(*object.Function); ok {
			vm.disassembleAll(nested)
		}
	}
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) frame() *frame { return &vm.frames[vm.frameCount-1] }

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() uint16 {
	f := vm.frame()
	b := f.closure.Function.Chunk.ReadShort(f.ip)
	f.ip += 2
	return b
}

func (vm *VM) readConstant() value.Value {
	idx := vm.readByte()
	return vm.frame().closure.Function.Chunk.Constants[idx]
}

func (vm *VM) readString() *object.String {
	return vm.readConstant().(*object.String)
}

// runtimeError prints message followed by a top-down frame backtrace and
// resets the stack: a multi-line back-trace is printed and execution
// aborts, with the VM stack reset so subsequent REPL input starts clean.
func (vm *VM) runtimeError(err error) Result {
	fmt.Fprintf(vm.cfg.Stderr, "%s\n", err)
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		line := fn.Chunk.Lines[f.ip-1]
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprintf(vm.cfg.Stderr, "[line %d] in %s\n", line, name)
	}
	vm.resetStack()
	return RuntimeError
}

// run is the bytecode dispatch loop. Every helper that can fail returns
// (Result, false); the loop returns that Result immediately — errors are
// never caught, they unwind to the top of the dispatch loop.
func (vm *VM) run() Result {
	for {
		op := chunk.Op(vm.readByte())
		switch op {
		case chunk.NOP:
			// no-op

		case chunk.CONSTANT:
			vm.push(vm.readConstant())
		case chunk.NIL:
			vm.push(value.NilValue)
		case chunk.TRUE:
			vm.push(value.True)
		case chunk.FALSE:
			vm.push(value.False)
		case chunk.POP:
			vm.pop()

		case chunk.GET_LOCAL:
			slot := vm.readByte()
			vm.push(vm.stack[vm.frame().slots+int(slot)])
		case chunk.SET_LOCAL:
			slot := vm.readByte()
			vm.stack[vm.frame().slots+int(slot)] = vm.peek(0)

		case chunk.GET_GLOBAL:
			name := vm.readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(fmt.Errorf("Undefined variable '%s'.", name.Chars))
			}
			vm.push(v)
		case chunk.DEFINE_GLOBAL:
			name := vm.readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case chunk.SET_GLOBAL:
			name := vm.readString()
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError(fmt.Errorf("Undefined variable '%s'.", name.Chars))
			}
			vm.globals.Set(name, vm.peek(0))

		case chunk.GET_UPVALUE:
			slot := vm.readByte()
			vm.push(vm.frame().closure.Upvalues[slot].Get())
		case chunk.SET_UPVALUE:
			slot := vm.readByte()
			vm.frame().closure.Upvalues[slot].SetValue(vm.peek(0))

		case chunk.GET_PROPERTY:
			if res, ok := vm.getProperty(); !ok {
				return res
			}
		case chunk.SET_PROPERTY:
			if res, ok := vm.setProperty(); !ok {
				return res
			}
		case chunk.GET_SUPER:
			name := vm.readString()
			superclass := vm.pop().(*object.Class)
			if !vm.bindMethod(superclass, name) {
				return vm.runtimeError(fmt.Errorf("Undefined property '%s'.", name.Chars))
			}

		case chunk.EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case chunk.GREATER, chunk.LESS:
			if res, ok := vm.numericCompare(op); !ok {
				return res
			}
		case chunk.ADD:
			if res, ok := vm.add(); !ok {
				return res
			}
		case chunk.SUB, chunk.MUL, chunk.DIV:
			if res, ok := vm.numericBinary(op); !ok {
				return res
			}
		case chunk.NOT:
			vm.push(value.Bool(!value.Truthy(vm.pop())))
		case chunk.NEGATE:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				return vm.runtimeError(fmt.Errorf("Operand must be a number."))
			}
			vm.pop()
			vm.push(-n)

		case chunk.PRINT:
			fmt.Fprintln(vm.cfg.Stdout, vm.pop().String())

		case chunk.JUMP:
			off := vm.readShort()
			vm.frame().ip += int(off)
		case chunk.JUMP_IF_FALSE:
			off := vm.readShort()
			if !value.Truthy(vm.peek(0)) {
				vm.frame().ip += int(off)
			}
		case chunk.LOOP:
			off := vm.readShort()
			vm.frame().ip -= int(off)

		case chunk.CALL:
			argCount := int(vm.readByte())
			if res, ok := vm.callValue(vm.peek(argCount), argCount); !ok {
				return res
			}
		case chunk.INVOKE:
			name := vm.readString()
			argCount := int(vm.readByte())
			if res, ok := vm.invoke(name, argCount); !ok {
				return res
			}
		case chunk.SUPER_CALL:
			name := vm.readString()
			argCount := int(vm.readByte())
			superclass := vm.pop().(*object.Class)
			if res, ok := vm.invokeFromClass(superclass, name, argCount); !ok {
				return res
			}

		case chunk.CLOSURE:
			vm.closureOp()
		case chunk.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()
		case chunk.RETURN:
			if done, res := vm.returnOp(); done {
				return res
			}

		case chunk.CLASS:
			name := vm.readString()
			cls := vm.heap.NewClass(name)
			vm.push(cls)
			vm.gc.MaybeCollect()
		case chunk.SUBCLASS:
			if res, ok := vm.subclass(); !ok {
				return res
			}
		case chunk.METHOD:
			name := vm.readString()
			method := vm.peek(0)
			class := vm.peek(1).(*object.Class)
			class.Methods.Set(name, method)
			vm.pop()

		default:
			panic(fmt.Sprintf("vm: illegal opcode %d", op))
		}
	}
}

func (vm *VM) getProperty() (Result, bool) {
	name := vm.readString()
	inst, ok := vm.peek(0).(*object.Instance)
	if !ok {
		return vm.runtimeError(fmt.Errorf("Only instances have properties.")), false
	}
	if v, ok := inst.Fields.Get(name); ok {
		vm.pop()
		vm.push(v)
		return 0, true
	}
	if !vm.bindMethod(inst.Class, name) {
		return vm.runtimeError(fmt.Errorf("Undefined property '%s'.", name.Chars)), false
	}
	return 0, true
}

func (vm *VM) setProperty() (Result, bool) {
	name := vm.readString()
	inst, ok := vm.peek(1).(*object.Instance)
	if !ok {
		return vm.runtimeError(fmt.Errorf("Only instances have fields.")), false
	}
	inst.Fields.Set(name, vm.peek(0))
	v := vm.pop()
	vm.pop()
	vm.push(v)
	return 0, true
}

// bindMethod looks up name in class's method table and, if found,
// replaces the receiver on top of the stack with a bound method pairing
// it with the closure. Reports false (leaving the stack untouched) if no
// such method exists.
func (vm *VM) bindMethod(class *object.Class, name *object.String) bool {
	method, ok := class.FindMethod(name)
	if !ok {
		return false
	}
	closure := method.(*object.Closure)
	bound := vm.heap.NewBoundMethod(vm.peek(0), closure)
	vm.pop()
	vm.push(bound)
	vm.gc.MaybeCollect()
	return true
}

func (vm *VM) callValue(callee value.Value, argCount int) (Result, bool) {
	switch c := callee.(type) {
	case *object.Closure:
		return vm.call(c, argCount)
	case *object.Native:
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, err := c.Fn(argCount, args)
		if err != nil {
			return vm.runtimeError(err), false
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return 0, true
	case *object.Class:
		inst := vm.heap.NewInstance(c)
		vm.stack[vm.stackTop-argCount-1] = inst
		vm.gc.MaybeCollect()
		if initializer, ok := c.FindMethod(vm.initString); ok {
			return vm.call(initializer.(*object.Closure), argCount)
		}
		if argCount != 0 {
			return vm.runtimeError(fmt.Errorf("Expected 0 arguments but got %d.", argCount)), false
		}
		return 0, true
	case *object.BoundMethod:
		vm.stack[vm.stackTop-argCount-1] = c.Receiver
		return vm.call(c.Method, argCount)
	default:
		return vm.runtimeError(fmt.Errorf("Can only call functions and classes.")), false
	}
}

// call pushes a new frame for closure, enforcing exact arity (argument
// count must equal declared arity, not merely be no less than it) and
// the call-frame cap.
func (vm *VM) call(closure *object.Closure, argCount int) (Result, bool) {
	if argCount != closure.Function.Arity {
		return vm.runtimeError(fmt.Errorf("Expected %d arguments but got %d.", closure.Function.Arity, argCount)), false
	}
	if vm.frameCount >= len(vm.frames) {
		return vm.runtimeError(fmt.Errorf("Stack overflow.")), false
	}
	vm.frames[vm.frameCount] = frame{
		closure: closure,
		slots:   vm.stackTop - argCount - 1,
	}
	vm.frameCount++
	return 0, true
}

// invoke implements the INVOKE fused path: a field of the receiving
// instance shadows a method of the same name.
func (vm *VM) invoke(name *object.String, argCount int) (Result, bool) {
	receiver := vm.peek(argCount)
	inst, ok := receiver.(*object.Instance)
	if !ok {
		return vm.runtimeError(fmt.Errorf("Only instances have methods.")), false
	}
	if field, ok := inst.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *object.Class, name *object.String, argCount int) (Result, bool) {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError(fmt.Errorf("Undefined property '%s'.", name.Chars)), false
	}
	return vm.call(method.(*object.Closure), argCount)
}

// closureOp handles CLOSURE: the new closure is pushed (rooting it)
// before the upvalue-capture loop runs, since capturing a local upvalue
// can itself allocate (allocation-safety pattern).
func (vm *VM) closureOp() {
	fn := vm.readConstant().(*object.Function)
	closure := vm.heap.NewClosure(fn)
	vm.push(closure)
	vm.gc.MaybeCollect()

	upvalCount := int(vm.readByte())
	for i := 0; i < upvalCount; i++ {
		isLocal := vm.readByte()
		index := int(vm.readByte())
		if isLocal != 0 {
			closure.Upvalues[i] = vm.captureUpvalue(vm.frame().slots + index)
		} else {
			closure.Upvalues[i] = vm.frame().closure.Upvalues[index]
		}
	}
}

// captureUpvalue returns the open upvalue for absolute stack index slot,
// reusing an existing entry or inserting a new one into the
// descending-by-Slot open-upvalues list.
func (vm *VM) captureUpvalue(slot int) *object.Upvalue {
	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}

	created := vm.heap.NewUpvalue(&vm.stack[slot], slot)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues hoists every open upvalue at or above fromSlot into its
// own storage, detaching it from the open list (used by CLOSE_UPVALUE
// and on function return).
func (vm *VM) closeUpvalues(fromSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= fromSlot {
		uv := vm.openUpvalues
		next := uv.NextOpen
		uv.Close()
		vm.openUpvalues = next
	}
}

// returnOp handles RETURN. It reports done=true once the top-level
// script's own frame returns, at which point res is the final Result.
func (vm *VM) returnOp() (done bool, res Result) {
	result := vm.pop()
	f := vm.frame()
	vm.closeUpvalues(f.slots)
	base := f.slots
	vm.frameCount--
	if vm.frameCount == 0 {
		vm.pop()
		return true, OK
	}
	vm.stackTop = base
	vm.push(result)
	return false, 0
}

// subclass implements SUBCLASS: it pops the class the compiler just
// re-pushed for this purpose and copies the method table of the class
// beneath it (the "super" local) into it.
func (vm *VM) subclass() (Result, bool) {
	superclass, ok := vm.peek(1).(*object.Class)
	if !ok {
		return vm.runtimeError(fmt.Errorf("Superclass must be a class.")), false
	}
	subclass := vm.pop().(*object.Class)
	superclass.Methods.CopyInto(subclass.Methods)
	subclass.Superclass = superclass
	return 0, true
}

func (vm *VM) add() (Result, bool) {
	_, aNum := vm.peek(1).(value.Number)
	_, bNum := vm.peek(0).(value.Number)
	if aNum && bNum {
		b := vm.pop().(value.Number)
		a := vm.pop().(value.Number)
		vm.push(a + b)
		return 0, true
	}

	_, aStr := vm.peek(1).(*object.String)
	_, bStr := vm.peek(0).(*object.String)
	if aStr && bStr {
		return vm.concatenate()
	}
	return vm.runtimeError(fmt.Errorf("Operands must be two numbers or two strings.")), false
}

// concatenate keeps both operand strings on the stack (peeked, not
// popped) until the freshly interned result exists, the allocation-safety
// rooting pattern.
func (vm *VM) concatenate() (Result, bool) {
	b := vm.peek(0).(*object.String)
	a := vm.peek(1).(*object.String)
	result := vm.heap.InternString(a.Chars + b.Chars)
	vm.pop()
	vm.pop()
	vm.push(result)
	vm.gc.MaybeCollect()
	return 0, true
}

func (vm *VM) numericCompare(op chunk.Op) (Result, bool) {
	b, bok := vm.peek(0).(value.Number)
	a, aok := vm.peek(1).(value.Number)
	if !aok || !bok {
		return vm.runtimeError(fmt.Errorf("Operands must be numbers.")), false
	}
	vm.pop()
	vm.pop()
	if op == chunk.GREATER {
		vm.push(value.Bool(a > b))
	} else {
		vm.push(value.Bool(a < b))
	}
	return 0, true
}

func (vm *VM) numericBinary(op chunk.Op) (Result, bool) {
	b, bok := vm.peek(0).(value.Number)
	a, aok := vm.peek(1).(value.Number)
	if !aok || !bok {
		return vm.runtimeError(fmt.Errorf("Operands must be numbers.")), false
	}
	vm.pop()
	vm.pop()
	switch op {
	case chunk.SUB:
		vm.push(a - b)
	case chunk.MUL:
		vm.push(a * b)
	case chunk.DIV:
		vm.push(a / b)
	}
	return 0, true
}
