package token

// Lexeme is the value produced by the scanner for each token: a token
// kind, the raw source text it spans, and the 1-based source line on
// which it starts. ERROR tokens (reported via Kind == ILLEGAL) carry a
// human-readable message in Text instead of source text.
type Lexeme struct {
	Kind Token
	Text string
	Line int
}
