package compiler

import "ember/lang/chunk"

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

// endScope pops every local declared in the scope just left, emitting
// CLOSE_UPVALUE for any that a nested closure captured and a plain POP
// otherwise (open/closed upvalue split begins here: the
// compiler decides statically which slots need closing).
func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fs.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitOp(chunk.CLOSE_UPVALUE)
		} else {
			c.emitOp(chunk.POP)
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// addLocal reserves a new local slot for name, left uninitialized
// (depth -1) until the defining statement calls markInitialized.
func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) >= chunk.MaxLocals {
		c.p.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: -1})
}

// declareVariable binds the just-parsed identifier as a local if inside a
// block scope (globals are implicitly declared by DEFINE_GLOBAL instead),
// rejecting a redeclaration in the same scope.
func (c *Compiler) declareVariable(name string) {
	if c.fs.scopeDepth == 0 {
		return
	}
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.p.errorAtPrevious("Variable with this name already declared in this scope.")
		}
	}
	c.addLocal(name)
}

// markInitialized flips the most recently declared local from
// uninitialized to belonging to the current scope.
func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].depth = c.fs.scopeDepth
}

// resolveLocal looks up name in fs's own locals, most-nested first so
// shadowing works, reporting a use-before-initialization error unless
// inFunction (upvalue resolution is allowed to see an enclosing function's
// not-yet-initialized local only when flattening through it).
func resolveLocal(fs *funcState, name string, inFunction bool) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if !inFunction && fs.locals[i].depth == -1 {
				return -2 // sentinel: caller reports the initializer-cycle error
			}
			return i
		}
	}
	return -1
}

// addUpvalue records that fs's function closes over index (a local slot if
// isLocal, else another upvalue of the immediately enclosing function),
// deduplicating against an existing entry for the same (index, isLocal)
// pair.
func (c *Compiler) addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= chunk.MaxUpvalues {
		c.p.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

// resolveUpvalue implements closure "flattening": it walks
// outward one function at a time, and for every intermediate function on
// the path from the declaring scope to fs it adds an upvalue so each link
// of the chain can re-export the captured slot to the next.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if localIdx := resolveLocal(fs.enclosing, name, true); localIdx >= 0 {
		fs.enclosing.locals[localIdx].isCaptured = true
		return c.addUpvalue(fs, uint8(localIdx), true)
	}
	if upIdx := c.resolveUpvalue(fs.enclosing, name); upIdx >= 0 {
		return c.addUpvalue(fs, uint8(upIdx), false)
	}
	return -1
}
