package compiler

import (
	"errors"
	"fmt"
)

// LexError reports a token whose text could not be turned into a valid
// token value. The only current producer is a number literal that fails
// the float parse, e.g. a lone ".".
type LexError struct {
	Lexeme string // the text that was consumed
	Err    error  // underlying cause, e.g. the strconv error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("malformed number literal %q: %v", e.Lexeme, e.Err)
}

func (e *LexError) Unwrap() error { return e.Err }

// ParseError reports a structural mismatch at a grammar decision point.
// Tok is the offending lookahead token; it is also retained by the Parser
// so drivers can point at it when rendering diagnostics.
type ParseError struct {
	Msg string
	Tok Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (got %s)", e.Msg, e.Tok)
}

// Generation error kinds. Every error returned by Codegen.Generate wraps
// exactly one of these, so callers can classify failures with errors.Is.
var (
	ErrUnboundVariable     = errors.New("unbound variable")
	ErrUnsupportedOperator = errors.New("unsupported binary operator")
	ErrUnknownFunction     = errors.New("unknown function")
	ErrArityMismatch       = errors.New("wrong number of call arguments")
	ErrVerify              = errors.New("function verification failed")
)
