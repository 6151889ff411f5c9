// Package compiler implements a single-pass compiler: it walks the token
// stream exactly once, with no intermediate AST, emitting bytecode
// directly into an object.Function's chunk as it recognizes each
// construct (a Pratt/precedence-climbing parser for expressions, recursive
// descent for statements).
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"ember/lang/chunk"
	"ember/lang/object"
	"ember/lang/scanner"
	"ember/lang/token"
	"ember/lang/value"
)

// Error is one compile-time diagnostic: a line number, an optional
// "at end"/"at 'lexeme'" location, and a message.
type Error struct {
	Line    int
	Where   string // "", "at end", or "at 'text'"
	Message string
}

func (e *Error) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error %s: %s", e.Line, e.Where, e.Message)
}

// Errors aggregates every diagnostic produced by a single Compile call.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// parser holds the lexical front end: the scanner plus the one-token
// lookahead the Pratt parser needs (previous/current).
type parser struct {
	sc *scanner.Scanner

	previous token.Lexeme
	current  token.Lexeme

	errors    Errors
	panicMode bool
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.sc.Next()
		if p.current.Kind != token.ILLEGAL {
			return
		}
		p.errorAtCurrent(p.current.Text)
	}
}

func (p *parser) check(k token.Token) bool { return p.current.Kind == k }

func (p *parser) match(k token.Token) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

// consume requires the current token to be k, reporting message otherwise.
// On failure for one of a small set of statement-ending tokens it resyncs
// by skipping forward to the next occurrence of that token.
func (p *parser) consume(k token.Token, message string) {
	if p.check(k) {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
	switch k {
	case token.LBRACE, token.RBRACE, token.RPAREN, token.EQ, token.SEMI:
		for !p.check(k) && !p.check(token.EOF) {
			p.advance()
		}
		p.advance()
	}
}

func (p *parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *parser) errorAtPrevious(message string) { p.errorAt(p.previous, message) }

func (p *parser) errorAt(tok token.Lexeme, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	where := ""
	switch tok.Kind {
	case token.EOF:
		where = "at end"
	case token.ILLEGAL:
		// the lexeme's Text IS the message in this case; no location detail.
	default:
		where = fmt.Sprintf("at '%s'", tok.Text)
	}
	p.errors = append(p.errors, &Error{Line: tok.Line, Where: where, Message: message})
}

// funcType distinguishes the four kinds of code unit a funcState can be
// compiling, since script/method/initializer bodies each have slightly
// different implicit-return and "this"-binding rules.
type funcType int

const (
	funcScript funcType = iota
	funcFunction
	funcMethod
	funcInitializer
)

// local is a block-scoped variable slot, tracked purely at compile time;
// "depth == -1 marks an uninitialized local" sentinel lets
// `var x = x;` be rejected at the point x is referenced in its own
// initializer.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records, for one function, which enclosing slot a captured
// variable resolves to and whether that slot is itself a local or another
// upvalue ( "flattening" closures through intermediate scopes).
type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState is the compiler's per-function-body frame: the object.Function
// under construction, its locals/upvalues, and the identifier-constant
// dedup cache (swiss.Map wiring).
type funcState struct {
	enclosing *funcState

	fn       *object.Function
	funcType funcType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int

	idents *identCache
}

// classState tracks the class currently being compiled, needed to validate
// `this`/`super` usage and whether a superclass-scoped local is in play.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler drives a single compile of one source text into a top-level
// object.Function. It is not reusable across calls to Compile.
type Compiler struct {
	heap *object.Heap
	p    *parser
	fs   *funcState
	cs   *classState
}

// Compile compiles source into a top-level, nameless object.Function ready
// for the VM to wrap in a closure and run. Compile errors are returned as
// an Errors value; a non-nil error means the returned function must be
// discarded.
func Compile(heap *object.Heap, source string) (*object.Function, error) {
	sc := &scanner.Scanner{}
	sc.Init(source)

	c := &Compiler{heap: heap, p: &parser{sc: sc}}
	c.pushFunc(funcScript, nil)

	// The compiler allocates heap objects (interned identifiers, the
	// top-level Function itself) while it runs, so it must register its
	// own GC root source for the duration of this call: the compiler's
	// in-progress function chain.
	remove := heap.AddRootSource(func(mark func(value.Value)) {
		for fs := c.fs; fs != nil; fs = fs.enclosing {
			mark(fs.fn)
		}
	})
	defer remove()

	c.p.advance()
	for !c.p.match(token.EOF) {
		c.declaration()
	}

	fn := c.endFunc()
	if len(c.p.errors) > 0 {
		return nil, c.p.errors
	}
	return fn, nil
}

func (c *Compiler) pushFunc(ft funcType, name *object.String) {
	fn := c.heap.NewFunction(name)
	fs := &funcState{enclosing: c.fs, fn: fn, funcType: ft, idents: newIdentCache()}

	// Slot 0 is implicitly reserved: it holds the receiver in a
	// method/initializer ("this"), or is unnamed and unreferenceable
	// otherwise.
	recvName := ""
	if ft == funcMethod || ft == funcInitializer {
		recvName = "this"
	}
	fs.locals = append(fs.locals, local{name: recvName, depth: 0})

	c.fs = fs
}

// endFunc finishes the current function body, emitting its implicit return
// and popping back to the enclosing funcState.
func (c *Compiler) endFunc() *object.Function {
	c.emitReturn()
	fn := c.fs.fn
	fn.UpvalueCount = len(c.fs.upvalues)
	c.fs = c.fs.enclosing
	return fn
}

func (c *Compiler) chunk() *chunk.Chunk { return &c.fs.fn.Chunk }

func (c *Compiler) line() int { return c.p.previous.Line }

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.line()) }
func (c *Compiler) emitOp(op chunk.Op) { c.chunk().WriteOp(op, c.line()) }
func (c *Compiler) emitOpByte(op chunk.Op, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	if c.fs.funcType == funcInitializer {
		c.emitOpByte(chunk.GET_LOCAL, 0)
	} else {
		c.emitOp(chunk.NIL)
	}
	c.emitOp(chunk.RETURN)
}

// emitConstant adds v to the current chunk's constant pool and emits a
// CONSTANT instruction for it. Capacity overflow (more than 256 distinct
// constants in one chunk) is reported as a compile error rather than
// silently truncating.
func (c *Compiler) emitConstant(v value.Value) {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.p.errorAtPrevious(err.Error())
		return
	}
	c.emitOpByte(chunk.CONSTANT, idx)
}

func (c *Compiler) emitJump(op chunk.Op) int { return c.chunk().EmitJump(op, c.line()) }

func (c *Compiler) patchJump(offset int) {
	if err := c.chunk().PatchJump(offset); err != nil {
		c.p.errorAtPrevious(err.Error())
	}
}

func (c *Compiler) emitLoop(loopStart int) {
	if err := c.chunk().EmitLoop(loopStart, c.line()); err != nil {
		c.p.errorAtPrevious(err.Error())
	}
}

// identCache memoizes identifier-constant lookups for one function's
// chunk, avoiding an O(n) constant-pool scan on every single name
// reference.
type identCache struct {
	byName *stringUint8Map
}

func newIdentCache() *identCache { return &identCache{byName: newStringUint8Map()} }

// identifierConstant returns the constant-pool index of an interned string
// for name, reusing a prior entry for the same spelling in this function
// if one exists.
func (c *Compiler) identifierConstant(name string) uint8 {
	if idx, ok := c.fs.idents.byName.Get(name); ok {
		return idx
	}
	str := c.heap.InternString(name)
	idx, err := c.chunk().AddConstant(str)
	if err != nil {
		c.p.errorAtPrevious(err.Error())
		return 0
	}
	c.fs.idents.byName.Put(name, idx)
	return idx
}

// parseNumber converts a scanned NUMBER lexeme's text to a float64. The
// scanner only ever produces well-formed numeric text, so a parse failure
// here would indicate a scanner bug, not a user error.
func parseNumber(text string) value.Number {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		panic(fmt.Sprintf("compiler: scanner produced malformed number literal %q: %v", text, err))
	}
	return value.Number(f)
}
