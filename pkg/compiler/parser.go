package compiler

import (
	"fmt"
	"io"
)

// Parser pulls tokens from a Lexer one top-level unit at a time and builds
// an AST. It holds exactly one token of lookahead: every production
// decision is made from the current token's type or lexeme alone.
//
// Grammar:
//
//	unit       = ";"* (definition | external | toplevel)
//	definition = "def" prototype expression
//	external   = "extern" prototype
//	toplevel   = expression                      (wrapped as AnonFuncName)
//	prototype  = IDENTIFIER "(" IDENTIFIER* ")"  (params have no separator)
//	expression = primary (OPERATOR primary)*     (precedence climbing)
//	primary    = IDENTIFIER | call | NUMBER | "(" expression ")" | if | for
//	call       = IDENTIFIER "(" (expression ("," expression)*)? ")"
//	if         = "if" expression "then" expression "else" expression
//	for        = "for" IDENTIFIER "=" expression "," expression
//	             ("," expression)? "in" expression
type Parser struct {
	lex        *Lexer
	precedence map[string]int
	cur        Token // the lookahead token, valid while peeking
	peeking    bool
}

// defaultPrecedence is the initial binary-operator table. Higher binds
// tighter; operators not in the table are not binary operators.
var defaultPrecedence = map[string]int{
	"<": 10,
	"+": 20,
	"-": 20,
	"*": 40,
}

// NewParser returns a Parser reading from lex, seeded with the default
// operator precedence table. The table is per-parser state, so independent
// parsers never interfere.
func NewParser(lex *Lexer) *Parser {
	prec := make(map[string]int, len(defaultPrecedence))
	for op, n := range defaultPrecedence {
		prec[op] = n
	}
	return &Parser{lex: lex, precedence: prec}
}

// SetPrecedence adds or overrides the rank of a binary operator. Must not
// be called while a unit is being parsed.
func (p *Parser) SetPrecedence(op string, rank int) {
	p.precedence[op] = rank
}

// tokenPrecedence returns the rank of the operator with the given source
// text, or -1 if it is not a binary operator.
func (p *Parser) tokenPrecedence(lexeme string) int {
	if rank, ok := p.precedence[lexeme]; ok {
		return rank
	}
	return -1
}

// Peek returns the current lookahead token without consuming it, lexing
// one on demand. After a parse failure it still returns the offending
// token, which is how drivers locate the error.
func (p *Parser) Peek() (Token, error) {
	if p.peeking {
		return p.cur, nil
	}
	tok, err := p.lex.Next()
	p.cur = tok
	p.peeking = true
	return tok, err
}

// Next consumes and returns the lookahead token. The following Peek
// forces a fresh lex.
func (p *Parser) Next() (Token, error) {
	tok, err := p.Peek()
	p.peeking = false
	return tok, err
}

// errf builds a ParseError pointing at tok.
func (p *Parser) errf(tok Token, format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Tok: tok}
}

// expect consumes the lookahead if it has the wanted type, and otherwise
// fails with a description of what the grammar needed.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok, err := p.Peek()
	if err != nil {
		return tok, err
	}
	if tok.Type != tt {
		return tok, p.errf(tok, "expected %s", what)
	}
	return p.Next()
}

// ParseUnit parses one complete top-level unit: a function definition, an
// extern declaration, or a bare expression wrapped in a synthetic
// zero-parameter function named AnonFuncName. Leading semicolons are
// skipped. Once only end-of-input remains it returns io.EOF. On a parse
// error the offending token stays in the lookahead and the next call
// starts fresh from wherever the source cursor sits.
func (p *Parser) ParseUnit() (Expr, error) {
	for {
		tok, err := p.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != SEMICOLON {
			break
		}
		p.Next()
	}

	tok, err := p.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case EOF:
		return nil, io.EOF
	case DEF:
		return p.parseDefinition()
	case EXTERN:
		return p.parseExtern()
	default:
		return p.parseTopLevel()
	}
}

// parseDefinition handles "def" prototype expression.
func (p *Parser) parseDefinition() (Expr, error) {
	p.Next() // def keyword, guaranteed by ParseUnit

	proto, err := p.parsePrototype()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Function{Proto: proto, Body: body}, nil
}

// parseExtern handles "extern" prototype. The prototype itself is the
// unit's AST root; generating it declares the function.
func (p *Parser) parseExtern() (Expr, error) {
	p.Next() // extern keyword
	return p.parsePrototype()
}

// parseTopLevel wraps a bare expression in an anonymous zero-parameter
// function so it can be generated and then evaluated by a collaborator.
func (p *Parser) parseTopLevel() (Expr, error) {
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	proto := &Prototype{Name: AnonFuncName, Params: []string{}}
	return &Function{Proto: proto, Body: body}, nil
}

// parsePrototype handles IDENTIFIER "(" IDENTIFIER* ")". Parameter names
// are adjacent identifiers with no separator.
func (p *Parser) parsePrototype() (*Prototype, error) {
	name, err := p.expect(IDENTIFIER, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "( after function name"); err != nil {
		return nil, err
	}

	params := []string{}
	for {
		tok, err := p.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != IDENTIFIER {
			break
		}
		p.Next()
		params = append(params, tok.Lexeme)
	}

	if _, err := p.expect(RPAREN, ") after parameter list"); err != nil {
		return nil, err
	}
	return &Prototype{Name: name.Lexeme, Params: params}, nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryRHS(0, lhs)
}

// parseBinaryRHS absorbs operator-expression pairs into lhs for as long as
// the next operator's rank is at least minRank. When the operator after a
// right-hand side binds tighter, the minimum rank is raised by one and the
// right-hand side re-enters recursively, which yields left associativity
// for equal ranks and right recursion for higher ones.
func (p *Parser) parseBinaryRHS(minRank int, lhs Expr) (Expr, error) {
	for {
		tok, err := p.Peek()
		if err != nil {
			return nil, err
		}
		rank := p.tokenPrecedence(tok.Lexeme)
		if rank < minRank {
			return lhs, nil
		}

		op, _ := p.Next()
		rhs, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		tok, err = p.Peek()
		if err != nil {
			return nil, err
		}
		if rank < p.tokenPrecedence(tok.Lexeme) {
			rhs, err = p.parseBinaryRHS(rank+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = &BinaryExpr{Op: op.Lexeme, Left: lhs, Right: rhs}
	}
}

// parsePrimary dispatches on the lookahead's type.
func (p *Parser) parsePrimary() (Expr, error) {
	tok, err := p.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case IDENTIFIER:
		return p.parseIdentifier()
	case NUMBER:
		tok, _ := p.Next()
		return &NumberExpr{Value: tok.Value}, nil
	case LPAREN:
		return p.parseParenthesized()
	case IF:
		return p.parseIf()
	case FOR:
		return p.parseFor()
	}
	return nil, p.errf(tok, "expected an expression")
}

func (p *Parser) parseParenthesized() (Expr, error) {
	p.Next() // (

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, ") after expression"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseIdentifier handles a variable reference or, when the identifier is
// followed by '(', a call with a comma-separated argument list.
func (p *Parser) parseIdentifier() (Expr, error) {
	name, _ := p.Next()

	tok, err := p.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != LPAREN {
		return &VariableExpr{Name: name.Lexeme}, nil
	}
	p.Next() // (

	args := []Expr{}
	tok, err = p.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != RPAREN {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			tok, err := p.Peek()
			if err != nil {
				return nil, err
			}
			if tok.Type == RPAREN {
				break
			}
			if tok.Type != COMMA {
				return nil, p.errf(tok, "expected , or ) in argument list")
			}
			p.Next()
		}
	}
	p.Next() // )

	return &CallExpr{Callee: name.Lexeme, Args: args}, nil
}

// parseIf handles "if" expression "then" expression "else" expression.
func (p *Parser) parseIf() (Expr, error) {
	p.Next() // if keyword

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN, "then after condition"); err != nil {
		return nil, err
	}
	thenExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, "else after then-expression"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &IfExpr{Cond: cond, Then: thenExpr, Else: elseExpr}, nil
}

// parseFor handles "for" IDENTIFIER "=" start "," end ("," step)? "in" body.
func (p *Parser) parseFor() (Expr, error) {
	p.Next() // for keyword

	name, err := p.expect(IDENTIFIER, "loop variable name")
	if err != nil {
		return nil, err
	}

	tok, err := p.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != OPERATOR || tok.Lexeme != "=" {
		return nil, p.errf(tok, "expected = after loop variable")
	}
	p.Next()

	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, ", after loop start value"); err != nil {
		return nil, err
	}
	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var step Expr
	tok, err = p.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == COMMA {
		p.Next()
		if step, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(IN, "in before loop body"); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ForExpr{Var: name.Lexeme, Start: start, End: end, Step: step, Body: body}, nil
}
