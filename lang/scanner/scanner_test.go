package scanner_test

import (
	"testing"

	"ember/lang/scanner"
	"ember/lang/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Lexeme {
	t.Helper()
	var s scanner.Scanner
	s.Init(src)
	var out []token.Lexeme
	for {
		lx := s.Next()
		out = append(out, lx)
		if lx.Kind == token.EOF {
			return out
		}
		require.Less(t, len(out), 10000, "scanner did not terminate")
	}
}

func kinds(lxs []token.Lexeme) []token.Token {
	out := make([]token.Token, len(lxs))
	for i, lx := range lxs {
		out[i] = lx.Kind
	}
	return out
}

func TestScanPunctuationAndOperators(t *testing.T) {
	lxs := scanAll(t, "(){};,.-+/*!!====<><=>=")
	assert.Equal(t, []token.Token{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMI,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SLASH, token.STAR,
		token.BANG, token.BANG_EQ, token.EQ_EQ, token.EQ, token.LT, token.GT,
		token.LT_EQ, token.GT_EQ, token.EOF,
	}, kinds(lxs))
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	lxs := scanAll(t, "and class else false fun for if nil or print return super this true var while foo_Bar2")
	want := []token.Token{
		token.AND, token.CLASS, token.ELSE, token.FALSE, token.FUN, token.FOR,
		token.IF, token.NIL, token.OR, token.PRINT, token.RETURN, token.SUPER,
		token.THIS, token.TRUE, token.VAR, token.WHILE, token.IDENT, token.EOF,
	}
	assert.Equal(t, want, kinds(lxs))
	assert.Equal(t, "foo_Bar2", lxs[len(lxs)-2].Text)
}

func TestScanNumberAndString(t *testing.T) {
	lxs := scanAll(t, `123 1.5 "hello world"`)
	require.Len(t, lxs, 4)
	assert.Equal(t, token.NUMBER, lxs[0].Kind)
	assert.Equal(t, "123", lxs[0].Text)
	assert.Equal(t, token.NUMBER, lxs[1].Kind)
	assert.Equal(t, "1.5", lxs[1].Text)
	assert.Equal(t, token.STRING, lxs[2].Kind)
	assert.Equal(t, "hello world", lxs[2].Text, "string text excludes surrounding quotes")
}

func TestScanSkipsCommentsAndTracksLines(t *testing.T) {
	lxs := scanAll(t, "var a = 1; // a comment\nvar b = 2;")
	require.Len(t, lxs, 11)
	assert.Equal(t, 1, lxs[0].Line)
	// "var b" starts on line 2
	idx := 0
	for i, lx := range lxs {
		if lx.Kind == token.VAR && i > 0 {
			idx = i
		}
	}
	assert.Equal(t, 2, lxs[idx].Line)
}

func TestUnterminatedStringIsIllegal(t *testing.T) {
	lxs := scanAll(t, `"unterminated`)
	require.Len(t, lxs, 2)
	assert.Equal(t, token.ILLEGAL, lxs[0].Kind)
	assert.Contains(t, lxs[0].Text, "Unterminated string")
}
