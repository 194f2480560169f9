package compiler

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func newTestParser(src string) *Parser {
	return NewParser(NewLexer(strings.NewReader(src)))
}

// parseOne parses a single unit and fails the test on error.
func parseOne(t *testing.T, src string) Expr {
	t.Helper()
	node, err := newTestParser(src).ParseUnit()
	if err != nil {
		t.Fatalf("ParseUnit(%q) failed: %v", src, err)
	}
	return node
}

// anon wraps an expression the way the parser wraps a bare top-level
// expression.
func anon(body Expr) *Function {
	return &Function{
		Proto: &Prototype{Name: AnonFuncName, Params: []string{}},
		Body:  body,
	}
}

func num(v float64) *NumberExpr { return &NumberExpr{Value: v} }

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Expr
	}{
		{
			name:  "PrecedenceClimbs",
			input: "1 + 2 * 3",
			expected: anon(&BinaryExpr{
				Op:    "+",
				Left:  num(1),
				Right: &BinaryExpr{Op: "*", Left: num(2), Right: num(3)},
			}),
		},
		{
			name:  "LeftAssociative",
			input: "1 - 2 - 3",
			expected: anon(&BinaryExpr{
				Op:    "-",
				Left:  &BinaryExpr{Op: "-", Left: num(1), Right: num(2)},
				Right: num(3),
			}),
		},
		{
			name:  "TighterThenLooser",
			input: "1 * 2 + 3",
			expected: anon(&BinaryExpr{
				Op:    "+",
				Left:  &BinaryExpr{Op: "*", Left: num(1), Right: num(2)},
				Right: num(3),
			}),
		},
		{
			name:  "ComparisonBindsLoosest",
			input: "a < b + 1",
			expected: anon(&BinaryExpr{
				Op:   "<",
				Left: &VariableExpr{Name: "a"},
				Right: &BinaryExpr{
					Op:    "+",
					Left:  &VariableExpr{Name: "b"},
					Right: num(1),
				},
			}),
		},
		{
			name:  "ParensOverridePrecedence",
			input: "(1 + 2) * 3",
			expected: anon(&BinaryExpr{
				Op:    "*",
				Left:  &BinaryExpr{Op: "+", Left: num(1), Right: num(2)},
				Right: num(3),
			}),
		},
		{
			name:     "BareVariable",
			input:    "x",
			expected: anon(&VariableExpr{Name: "x"}),
		},
		{
			name:     "EmptyCall",
			input:    "f()",
			expected: anon(&CallExpr{Callee: "f", Args: []Expr{}}),
		},
		{
			name:  "NestedCall",
			input: "f(1, g(2), 3)",
			expected: anon(&CallExpr{
				Callee: "f",
				Args: []Expr{
					num(1),
					&CallExpr{Callee: "g", Args: []Expr{num(2)}},
					num(3),
				},
			}),
		},
		{
			name:  "Conditional",
			input: "if x < 2 then 1 else 2",
			expected: anon(&IfExpr{
				Cond: &BinaryExpr{Op: "<", Left: &VariableExpr{Name: "x"}, Right: num(2)},
				Then: num(1),
				Else: num(2),
			}),
		},
		{
			name:  "ForWithoutStep",
			input: "for i = 1, 10 in i",
			expected: anon(&ForExpr{
				Var:   "i",
				Start: num(1),
				End:   num(10),
				Body:  &VariableExpr{Name: "i"},
			}),
		},
		{
			name:  "ForWithStep",
			input: "for i = 1, 10, 2 in i",
			expected: anon(&ForExpr{
				Var:   "i",
				Start: num(1),
				End:   num(10),
				Step:  num(2),
				Body:  &VariableExpr{Name: "i"},
			}),
		},
		{
			name:     "LeadingSemicolons",
			input:    ";; 7",
			expected: anon(num(7)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseOne(t, tt.input)
			if !reflect.DeepEqual(node, tt.expected) {
				t.Errorf("AST mismatch\ngot:      %s\nexpected: %s", node, tt.expected)
			}
		})
	}
}

func TestParseDefinition(t *testing.T) {
	node := parseOne(t, "def add(a b) a + b")

	expected := &Function{
		Proto: &Prototype{Name: "add", Params: []string{"a", "b"}},
		Body: &BinaryExpr{
			Op:    "+",
			Left:  &VariableExpr{Name: "a"},
			Right: &VariableExpr{Name: "b"},
		},
	}
	if !reflect.DeepEqual(node, expected) {
		t.Errorf("AST mismatch\ngot:      %s\nexpected: %s", node, expected)
	}
}

func TestParseExtern(t *testing.T) {
	node := parseOne(t, "extern sin(x)")

	expected := &Prototype{Name: "sin", Params: []string{"x"}}
	if !reflect.DeepEqual(node, expected) {
		t.Errorf("AST mismatch\ngot:      %s\nexpected: %s", node, expected)
	}
}

func TestParseSequentialUnits(t *testing.T) {
	p := newTestParser("def one() 1; one();")

	first, err := p.ParseUnit()
	if err != nil {
		t.Fatalf("first unit: %v", err)
	}
	fn, ok := first.(*Function)
	if !ok || fn.Proto.Name != "one" {
		t.Fatalf("expected definition of one, got %s", first)
	}

	second, err := p.ParseUnit()
	if err != nil {
		t.Fatalf("second unit: %v", err)
	}
	fn, ok = second.(*Function)
	if !ok || fn.Proto.Name != AnonFuncName {
		t.Fatalf("expected anonymous unit, got %s", second)
	}

	if _, err := p.ParseUnit(); err != io.EOF {
		t.Fatalf("expected io.EOF after last unit, got %v", err)
	}
}

func TestParseEOF(t *testing.T) {
	for _, src := range []string{"", "   \n", ";;;"} {
		if _, err := newTestParser(src).ParseUnit(); err != io.EOF {
			t.Errorf("ParseUnit(%q): expected io.EOF, got %v", src, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		offending Token
	}{
		{
			name:      "MissingRparenInProto",
			input:     "def foo(a b 1",
			offending: Token{Type: NUMBER, Lexeme: "1", Value: 1},
		},
		{
			name:      "MissingRparenInGroup",
			input:     "(1 + 2",
			offending: Token{Type: EOF, Lexeme: "EOF"},
		},
		{
			name:      "MissingThen",
			input:     "if 1 1 else 2",
			offending: Token{Type: NUMBER, Lexeme: "1", Value: 1},
		},
		{
			name:      "MissingElse",
			input:     "if 1 then 2",
			offending: Token{Type: EOF, Lexeme: "EOF"},
		},
		{
			name:      "MissingEquals",
			input:     "for i 1, 10 in i",
			offending: Token{Type: NUMBER, Lexeme: "1", Value: 1},
		},
		{
			name:      "MissingIn",
			input:     "for i = 1, 10 i",
			offending: Token{Type: IDENTIFIER, Lexeme: "i"},
		},
		{
			name:      "BadArgumentSeparator",
			input:     "f(1 2)",
			offending: Token{Type: NUMBER, Lexeme: "2", Value: 2},
		},
		{
			name:      "BadPrimary",
			input:     ")",
			offending: Token{Type: RPAREN, Lexeme: ")"},
		},
		{
			name:      "ProtoNameNotIdentifier",
			input:     "def 1(x) 1",
			offending: Token{Type: NUMBER, Lexeme: "1", Value: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(tt.input)
			_, err := p.ParseUnit()
			if err == nil {
				t.Fatal("expected a parse error")
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T (%v)", err, err)
			}
			if perr.Tok != tt.offending {
				t.Errorf("offending token: got %s, expected %s", perr.Tok, tt.offending)
			}

			// The offending token stays in the lookahead for reporting.
			tok, err := p.Peek()
			if err != nil {
				t.Fatalf("Peek after failure: %v", err)
			}
			if tok != tt.offending {
				t.Errorf("retained lookahead: got %s, expected %s", tok, tt.offending)
			}
		})
	}
}

func TestSetPrecedence(t *testing.T) {
	p := newTestParser("1 == 2 + 3")
	p.SetPrecedence("==", 5)

	node, err := p.ParseUnit()
	if err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}

	expected := anon(&BinaryExpr{
		Op:    "==",
		Left:  num(1),
		Right: &BinaryExpr{Op: "+", Left: num(2), Right: num(3)},
	})
	if !reflect.DeepEqual(node, expected) {
		t.Errorf("AST mismatch\ngot:      %s\nexpected: %s", node, expected)
	}
}

// Without a precedence entry an operator is simply not a binary operator:
// the expression ends before it, and the next parse attempt trips on it.
func TestUnknownOperatorEndsExpression(t *testing.T) {
	p := newTestParser("1 ? 2")

	node, err := p.ParseUnit()
	if err != nil {
		t.Fatalf("ParseUnit failed: %v", err)
	}
	if !reflect.DeepEqual(node, anon(num(1))) {
		t.Fatalf("expected bare 1, got %s", node)
	}

	if _, err := p.ParseUnit(); err == nil {
		t.Fatal("expected a parse error on the stray operator")
	}
}
