package compiler

import (
	"io"
	"strconv"
	"strings"
	"unicode"
)

// keywords maps identifier text to its keyword TokenType. Matching is
// exact and case-sensitive: "definition" stays an identifier.
var keywords = map[string]TokenType{
	"def":    DEF,
	"extern": EXTERN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
}

// Lexer turns a character source into a stream of tokens, one per call to
// Next. It reads the source strictly sequentially and uses exactly one rune
// of pushback (UnreadRune) to detect token boundaries, so interactive
// sources work: consuming a token consumes no more input than that token
// plus its terminating character.
type Lexer struct {
	src io.RuneScanner
	err error // first non-EOF read error, surfaced on the EOF token
}

// NewLexer returns a Lexer reading from src. Use a *bufio.Reader or
// *strings.Reader; any io.RuneScanner works.
func NewLexer(src io.RuneScanner) *Lexer {
	return &Lexer{src: src}
}

// read consumes one rune. ok is false at end of input; non-EOF read
// failures also end the input and are reported by Next.
func (l *Lexer) read() (rune, bool) {
	r, _, err := l.src.ReadRune()
	if err != nil {
		if err != io.EOF && l.err == nil {
			l.err = err
		}
		return 0, false
	}
	return r, true
}

// unread pushes the last-read rune back. Only ever called immediately
// after a successful read, which is what io.RuneScanner guarantees.
func (l *Lexer) unread() {
	l.src.UnreadRune()
}

// Next consumes and returns the next token. Once the source is exhausted
// it returns an EOF token on every call. The only token-level failure is a
// number literal the float parse rejects, reported as *LexError alongside
// an ERROR token.
func (l *Lexer) Next() (Token, error) {
	c, ok := l.read()
	for ok && unicode.IsSpace(c) {
		c, ok = l.read()
	}
	if !ok {
		return Token{Type: EOF, Lexeme: "EOF"}, l.err
	}

	if unicode.IsLetter(c) {
		return l.scanIdent(c), nil
	}
	if unicode.IsDigit(c) || c == '.' {
		return l.scanNumber(c)
	}

	switch c {
	case '(':
		return Token{Type: LPAREN, Lexeme: "("}, nil
	case ')':
		return Token{Type: RPAREN, Lexeme: ")"}, nil
	case ';':
		return Token{Type: SEMICOLON, Lexeme: ";"}, nil
	case ',':
		return Token{Type: COMMA, Lexeme: ","}, nil
	}

	return l.scanOperator(c), nil
}

// scanIdent collects a maximal letter/digit run starting at c, then
// reclassifies it as a keyword if the whole lexeme matches one.
func (l *Lexer) scanIdent(c rune) Token {
	var b strings.Builder
	ok := true
	for ok && (unicode.IsLetter(c) || unicode.IsDigit(c)) {
		b.WriteRune(c)
		c, ok = l.read()
	}
	if ok {
		l.unread()
	}

	lexeme := b.String()
	if kw, found := keywords[lexeme]; found {
		return Token{Type: kw, Lexeme: lexeme}
	}
	return Token{Type: IDENTIFIER, Lexeme: lexeme}
}

// scanNumber collects a digit run, then at most one '.' followed by
// another digit run, and parses the result as a float. Only the float
// parse rejects malformed input: "1.2.3" therefore lexes as 1.2 followed
// by 0.3, while a lone "." is a lex error.
func (l *Lexer) scanNumber(c rune) (Token, error) {
	var b strings.Builder
	ok := true
	for ok && unicode.IsDigit(c) {
		b.WriteRune(c)
		c, ok = l.read()
	}
	if ok && c == '.' {
		b.WriteRune(c)
		c, ok = l.read()
		for ok && unicode.IsDigit(c) {
			b.WriteRune(c)
			c, ok = l.read()
		}
	}
	if ok {
		l.unread()
	}

	lexeme := b.String()
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return Token{Type: ERROR, Lexeme: lexeme}, &LexError{Lexeme: lexeme, Err: err}
	}
	return Token{Type: NUMBER, Lexeme: lexeme, Value: value}, nil
}

// scanOperator collects a maximal run of symbol characters starting at c.
// The run ends at whitespace, a letter or digit, '.', '(', ')' or ';' —
// but not ',', so multi-character operators like "==" or user-defined
// symbols lex as a single token.
func (l *Lexer) scanOperator(c rune) Token {
	var b strings.Builder
	ok := true
	for ok && !operatorBoundary(c) {
		b.WriteRune(c)
		c, ok = l.read()
	}
	if ok {
		l.unread()
	}
	return Token{Type: OPERATOR, Lexeme: b.String()}
}

func operatorBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '.' || r == '(' || r == ')' || r == ';'
}
