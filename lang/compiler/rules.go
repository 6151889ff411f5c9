package compiler

import "ember/lang/token"

// precedence levels, weakest to strongest; each level parses everything
// of strictly higher precedence as its right-hand operand, giving the
// climbing parser its recursion bound.
type precedence int

const (
	precNone precedence = iota
	precAssignment       // =
	precOr               // or
	precAnd              // and
	precEquality         // == !=
	precComparison       // < > <= >=
	precTerm             // + -
	precFactor           // * /
	precUnary            // ! - (prefix)
	precCall             // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules is indexed by token.Token, one entry per lexical kind the parser
// may see in expression position: a prefix rule, an infix rule, and the
// infix operator's binding precedence.
var rules [token.WHILE + 1]parseRule

func init() {
	rules = buildRules()
}

func buildRules() [token.WHILE + 1]parseRule {
	var r [token.WHILE + 1]parseRule

	r[token.LPAREN] = parseRule{prefix: grouping, infix: call, prec: precCall}
	r[token.DOT] = parseRule{infix: dot, prec: precCall}
	r[token.MINUS] = parseRule{prefix: unary, infix: binary, prec: precTerm}
	r[token.PLUS] = parseRule{infix: binary, prec: precTerm}
	r[token.SLASH] = parseRule{infix: binary, prec: precFactor}
	r[token.STAR] = parseRule{infix: binary, prec: precFactor}
	r[token.BANG] = parseRule{prefix: unary}
	r[token.BANG_EQ] = parseRule{infix: binary, prec: precEquality}
	r[token.EQ_EQ] = parseRule{infix: binary, prec: precEquality}
	r[token.GT] = parseRule{infix: binary, prec: precComparison}
	r[token.GT_EQ] = parseRule{infix: binary, prec: precComparison}
	r[token.LT] = parseRule{infix: binary, prec: precComparison}
	r[token.LT_EQ] = parseRule{infix: binary, prec: precComparison}
	r[token.IDENT] = parseRule{prefix: variable}
	r[token.STRING] = parseRule{prefix: stringLit}
	r[token.NUMBER] = parseRule{prefix: number}
	r[token.AND] = parseRule{infix: and_, prec: precAnd}
	r[token.OR] = parseRule{infix: or_, prec: precOr}
	r[token.FALSE] = parseRule{prefix: literalFalse}
	r[token.TRUE] = parseRule{prefix: literalTrue}
	r[token.NIL] = parseRule{prefix: literalNil}
	r[token.SUPER] = parseRule{prefix: super_}
	r[token.THIS] = parseRule{prefix: this_}

	return r
}

func getRule(k token.Token) *parseRule { return &rules[k] }

// parsePrecedence is the heart of the Pratt parser: consume one token,
// dispatch its prefix rule, then keep consuming infix operators whose
// precedence is at least `prec`. canAssign is threaded down so `a + b = c`
// can be rejected as an invalid assignment target: it is only true when
// `prec <= precAssignment`, i.e. at true expression-statement top level.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.p.advance()
	prefix := getRule(c.p.previous.Kind).prefix
	if prefix == nil {
		c.p.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.p.current.Kind).prec {
		c.p.advance()
		infix := getRule(c.p.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.p.match(token.EQ) {
		c.p.errorAtPrevious("Invalid assignment target.")
		c.expression()
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }
