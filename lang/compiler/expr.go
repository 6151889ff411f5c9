package compiler

import (
	"ember/lang/chunk"
	"ember/lang/token"
)

func number(c *Compiler, _ bool) {
	c.emitConstant(parseNumber(c.p.previous.Text))
}

func stringLit(c *Compiler, _ bool) {
	c.emitConstant(c.heap.InternString(c.p.previous.Text))
}

func literalFalse(c *Compiler, _ bool) { c.emitOp(chunk.FALSE) }
func literalTrue(c *Compiler, _ bool) { c.emitOp(chunk.TRUE) }
func literalNil(c *Compiler, _ bool) { c.emitOp(chunk.NIL) }

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.p.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	op := c.p.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		c.emitOp(chunk.NOT)
	case token.MINUS:
		c.emitOp(chunk.NEGATE)
	}
}

func binary(c *Compiler, _ bool) {
	op := c.p.previous.Kind
	rule := getRule(op)
	c.parsePrecedence(rule.prec + 1)

	switch op {
	case token.BANG_EQ:
		c.emitOp(chunk.EQUAL)
		c.emitOp(chunk.NOT)
	case token.EQ_EQ:
		c.emitOp(chunk.EQUAL)
	case token.GT:
		c.emitOp(chunk.GREATER)
	case token.GT_EQ:
		c.emitOp(chunk.LESS)
		c.emitOp(chunk.NOT)
	case token.LT:
		c.emitOp(chunk.LESS)
	case token.LT_EQ:
		c.emitOp(chunk.GREATER)
		c.emitOp(chunk.NOT)
	case token.PLUS:
		c.emitOp(chunk.ADD)
	case token.MINUS:
		c.emitOp(chunk.SUB)
	case token.STAR:
		c.emitOp(chunk.MUL)
	case token.SLASH:
		c.emitOp(chunk.DIV)
	}
}

// and_ and or_ implement short-circuit evaluation by jumping over the
// right-hand operand's bytecode rather than always evaluating both sides.
func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(chunk.JUMP_IF_FALSE)
	endJump := c.emitJump(chunk.JUMP)
	c.patchJump(elseJump)
	c.emitOp(chunk.POP)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// argumentList compiles a parenthesized, comma-separated argument list
// (the opening paren has already been consumed by the caller) and returns
// the count, enforcing MaxArity-8 cap.
func (c *Compiler) argumentList() byte {
	var argCount int
	if !c.p.check(token.RPAREN) {
		for {
			c.expression()
			argCount++
			if argCount > chunk.MaxArity {
				c.p.errorAtPrevious("Cannot have more than 8 arguments.")
			}
			if !c.p.match(token.COMMA) {
				break
			}
		}
	}
	c.p.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argCount)
}

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpByte(chunk.CALL, argCount)
}

func dot(c *Compiler, canAssign bool) {
	c.p.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.p.previous.Text)

	switch {
	case canAssign && c.p.match(token.EQ):
		c.expression()
		c.emitOpByte(chunk.SET_PROPERTY, name)
	case c.p.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOp(chunk.INVOKE)
		c.emitByte(name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(chunk.GET_PROPERTY, name)
	}
}

// namedVariable compiles a read or write of name, resolving it as a local,
// then an upvalue, then falling back to a global.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp chunk.Op
	var arg int

	if local := resolveLocal(c.fs, name, false); local == -2 {
		c.p.errorAtPrevious("Cannot read local variable in its own initializer.")
		arg, getOp, setOp = 0, chunk.GET_LOCAL, chunk.SET_LOCAL
	} else if local >= 0 {
		arg, getOp, setOp = local, chunk.GET_LOCAL, chunk.SET_LOCAL
	} else if up := c.resolveUpvalue(c.fs, name); up >= 0 {
		arg, getOp, setOp = up, chunk.GET_UPVALUE, chunk.SET_UPVALUE
	} else {
		arg, getOp, setOp = int(c.identifierConstant(name)), chunk.GET_GLOBAL, chunk.SET_GLOBAL
	}

	if canAssign && c.p.match(token.EQ) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.p.previous.Text, canAssign)
}

// pushSuperclass re-reads the "super" local pushed by classDeclaration
// onto the stack, used as the receiver operand for GET_SUPER/SUPER_CALL.
func (c *Compiler) pushSuperclass() {
	if c.cs == nil {
		return
	}
	c.namedVariable("super", false)
}

func super_(c *Compiler, _ bool) {
	switch {
	case c.cs == nil:
		c.p.errorAtPrevious("Cannot use 'super' outside of a class.")
	case !c.cs.hasSuperclass:
		c.p.errorAtPrevious("Cannot use 'super' in a class with no superclass.")
	}

	c.p.consume(token.DOT, "Expect '.' after 'super'.")
	c.p.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.p.previous.Text)

	c.namedVariable("this", false)

	if c.p.match(token.LPAREN) {
		argCount := c.argumentList()
		c.pushSuperclass()
		c.emitOp(chunk.SUPER_CALL)
		c.emitByte(name)
		c.emitByte(argCount)
	} else {
		c.pushSuperclass()
		c.emitOpByte(chunk.GET_SUPER, name)
	}
}

func this_(c *Compiler, _ bool) {
	if c.cs == nil {
		c.p.errorAtPrevious("Cannot use 'this' outside of a class.")
		return
	}
	c.namedVariable("this", false)
}
