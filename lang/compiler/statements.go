package compiler

import (
	"ember/lang/chunk"
	"ember/lang/object"
	"ember/lang/token"
)

// declaration is the top-level grammar entry for anything that can appear
// in a block: a class/function/variable declaration, or any statement.
// parseVariable+defineVariable together implement the local-vs-global
// split: a local never emits DEFINE_GLOBAL, its slot is simply left on
// the stack where parseVariable's declareVariable already reserved it.
func (c *Compiler) declaration() {
	switch {
	case c.p.match(token.CLASS):
		c.classDeclaration()
	case c.p.match(token.FUN):
		c.funDeclaration()
	case c.p.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.p.panicMode {
		c.synchronize()
	}
}

// synchronize discards tokens until it reaches a plausible statement
// boundary after a parse error, so one mistake reports once instead of
// cascading into dozens of spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.p.panicMode = false
	for c.p.current.Kind != token.EOF {
		if c.p.previous.Kind == token.SEMI {
			return
		}
		switch c.p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.p.advance()
	}
}

// parseVariable consumes an identifier naming a variable. For a global it
// immediately pools the name as a constant (the index DEFINE_GLOBAL will
// use); for a local, declareVariable reserves the slot instead and the
// returned index is meaningless.
func (c *Compiler) parseVariable(errMsg string) uint8 {
	c.p.consume(token.IDENT, errMsg)
	name := c.p.previous.Text
	if c.fs.scopeDepth == 0 {
		return c.identifierConstant(name)
	}
	c.declareVariable(name)
	return 0
}

func (c *Compiler) defineVariable(global uint8) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(chunk.DEFINE_GLOBAL, global)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.p.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(chunk.NIL)
	}
	c.p.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.function(funcFunction, "")
	c.defineVariable(global)
}

// function compiles one function body — parameter list plus block — in
// its own funcState, then emits the enclosing chunk's CLOSURE instruction
// followed by the explicit upvalue-count byte and one (isLocal, index)
// pair per captured upvalue.
func (c *Compiler) function(ft funcType, methodName string) {
	var name *object.String
	if methodName != "" {
		name = c.heap.InternString(methodName)
	} else if c.p.previous.Kind == token.IDENT {
		name = c.heap.InternString(c.p.previous.Text)
	}
	c.pushFunc(ft, name)
	c.beginScope()

	c.p.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.p.check(token.RPAREN) {
		for {
			c.fs.fn.Arity++
			if c.fs.fn.Arity > chunk.MaxArity {
				c.p.errorAtCurrent("Cannot have more than 8 parameters.")
			}
			param := c.parseVariable("Expect parameter name.")
			c.defineVariable(param)
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RPAREN, "Expect ')' after parameters.")

	c.p.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	upvalues := c.fs.upvalues
	fn := c.endFunc()

	c.emitOp(chunk.CLOSURE)
	idx, err := c.chunk().AddConstant(fn)
	if err != nil {
		c.p.errorAtPrevious(err.Error())
		return
	}
	c.emitByte(idx)
	c.emitByte(byte(len(upvalues)))
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitByte(isLocal)
		c.emitByte(uv.index)
	}
}

func (c *Compiler) method() {
	c.p.consume(token.IDENT, "Expect method name.")
	name := c.p.previous.Text
	nameConst := c.identifierConstant(name)

	ft := funcMethod
	if name == "init" {
		ft = funcInitializer
	}
	c.function(ft, name)
	c.emitOpByte(chunk.METHOD, nameConst)
}

// classDeclaration compiles a class statement. The class is created and
// bound to its name immediately, exactly like any other variable
// declaration — this matters for a nested (non-top-level) class with a
// superclass, since it puts the class's own local slot in the enclosing
// scope rather than inside the "super" scope opened below it, so the slot
// survives the endScope that closes that inner scope. When a superclass is
// present, SUBCLASS then copies its method table into the already-bound
// class in place, after which individual METHOD opcodes may override
// entries; `super` is bound as a scoped local so GET_SUPER/SUPER_CALL can
// read it back via namedVariable.
func (c *Compiler) classDeclaration() {
	c.p.consume(token.IDENT, "Expect class name.")
	className := c.p.previous.Text
	nameConstant := c.identifierConstant(className)
	c.declareVariable(className)
	c.emitOpByte(chunk.CLASS, nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.cs}
	c.cs = cs

	if c.p.match(token.LT) {
		c.p.consume(token.IDENT, "Expect superclass name.")
		if c.p.previous.Text == className {
			c.p.errorAtPrevious("A class cannot inherit from itself.")
		}
		variable(c, false) // pushes the superclass value

		cs.hasSuperclass = true
		c.beginScope()
		c.addLocal("super")
		c.markInitialized()

		c.namedVariable(className, false) // re-push the class being defined
		c.emitOp(chunk.SUBCLASS)
	}

	c.namedVariable(className, false) // keeps the class on the stack through method()
	c.p.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.p.check(token.RBRACE) && !c.p.check(token.EOF) {
		c.method()
	}
	c.p.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(chunk.POP)

	if cs.hasSuperclass {
		c.endScope()
	}

	c.cs = cs.enclosing
}

func (c *Compiler) block() {
	for !c.p.check(token.RBRACE) && !c.p.check(token.EOF) {
		c.declaration()
	}
	c.p.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) statement() {
	switch {
	case c.p.match(token.FOR):
		c.forStatement()
	case c.p.match(token.IF):
		c.ifStatement()
	case c.p.match(token.PRINT):
		c.printStatement()
	case c.p.match(token.RETURN):
		c.returnStatement()
	case c.p.match(token.WHILE):
		c.whileStatement()
	case c.p.check(token.LBRACE):
		c.p.advance()
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.p.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(chunk.POP)
}

func (c *Compiler) printStatement() {
	c.expression()
	c.p.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(chunk.PRINT)
}

func (c *Compiler) returnStatement() {
	if c.fs.funcType == funcScript {
		c.p.errorAtPrevious("Cannot return from top-level code.")
	}
	if c.p.match(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.fs.funcType == funcInitializer {
		c.p.errorAtPrevious("Cannot return a value from an initializer.")
	}
	c.expression()
	c.p.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(chunk.RETURN)
}

func (c *Compiler) ifStatement() {
	c.p.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.statement()

	elseJump := c.emitJump(chunk.JUMP)
	c.patchJump(thenJump)
	c.emitOp(chunk.POP)

	if c.p.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk().Len()

	c.p.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.POP)
}

// forStatement desugars the three-clause C-style for loop into the
// equivalent while-loop bytecode shape: initializer, condition-guarded
// exit jump, an unconditional jump around the increment on the first
// pass, then looping back to the increment after each body execution.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.p.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.p.match(token.SEMI):
		// no initializer
	case c.p.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().Len()
	exitJump := -1
	if !c.p.match(token.SEMI) {
		c.expression()
		c.p.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = c.emitJump(chunk.JUMP_IF_FALSE)
		c.emitOp(chunk.POP)
	}

	if !c.p.match(token.RPAREN) {
		bodyJump := c.emitJump(chunk.JUMP)
		incrementStart := c.chunk().Len()
		c.expression()
		c.emitOp(chunk.POP)
		c.p.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(chunk.POP)
	}
	c.endScope()
}
