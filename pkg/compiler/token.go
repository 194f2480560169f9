package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF   TokenType = iota // sentinel: end of input
	ERROR                  // malformed token, e.g. an unparseable number literal

	// Literals
	IDENTIFIER // variable / function name
	NUMBER     // floating-point literal

	// Keywords
	DEF    // "def"
	EXTERN // "extern"
	IF     // "if"
	THEN   // "then"
	ELSE   // "else"
	FOR    // "for"
	IN     // "in"

	// Punctuation
	LPAREN    // (
	RPAREN    // )
	SEMICOLON // ;
	COMMA     // ,

	// Any other run of symbol characters, e.g. +, <, ==, |>
	OPERATOR
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:        "EOF",
	ERROR:      "ERROR",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	DEF:        "DEF",
	EXTERN:     "EXTERN",
	IF:         "IF",
	THEN:       "THEN",
	ELSE:       "ELSE",
	FOR:        "FOR",
	IN:         "IN",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	SEMICOLON:  "SEMICOLON",
	COMMA:      "COMMA",
	OPERATOR:   "OPERATOR",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer. Tokens are plain
// comparable values: two tokens are equal when type, lexeme and numeric
// value all match.
type Token struct {
	Type   TokenType
	Lexeme string  // the exact source text that was matched
	Value  float64 // parsed value, meaningful only for NUMBER tokens
}

func (t Token) String() string {
	if t.Type == NUMBER {
		return fmt.Sprintf("{%s %q %v}", t.Type, t.Lexeme, t.Value)
	}
	return fmt.Sprintf("{%s %q}", t.Type, t.Lexeme)
}
