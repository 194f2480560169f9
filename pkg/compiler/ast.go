package compiler

import (
	"fmt"
	"strings"
)

// AnonFuncName is the reserved name given to the synthetic zero-parameter
// function that wraps a bare top-level expression. Drivers compare the
// generated function's name against it to decide whether a unit should be
// evaluated immediately.
const AnonFuncName = "__anon_expr"

// Expr is implemented by every syntax tree node. Each composite node owns
// its children exclusively; only *Prototype is ever shared, between a
// Function and the cross-unit PrototypeRegistry.
type Expr interface {
	exprNode()
	String() string
}

// NumberExpr is a floating-point literal.
//
//	fib(x - 1.5)
//	         ^^^  NumberExpr{Value: 1.5}
type NumberExpr struct {
	Value float64
}

func (*NumberExpr) exprNode()        {}
func (n *NumberExpr) String() string { return fmt.Sprintf("%v", n.Value) }

// VariableExpr is a read of a named value (a parameter or loop variable).
type VariableExpr struct {
	Name string
}

func (*VariableExpr) exprNode()        {}
func (v *VariableExpr) String() string { return v.Name }

// BinaryExpr represents Left Op Right. Op is the operator's source text;
// whether it names a supported operation is decided at generation time,
// not at parse time.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// CallExpr represents Callee(Args...). The argument count is unchecked
// until generation, where it must match the callee's prototype.
type CallExpr struct {
	Callee string
	Args   []Expr
}

func (*CallExpr) exprNode() {}
func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}

// Prototype is a function's name and ordered parameter names, independent
// of any body. A forward declaration and the later definition share one
// Prototype through the registry.
type Prototype struct {
	Name   string
	Params []string
}

func (*Prototype) exprNode() {}
func (p *Prototype) String() string {
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(p.Params, " "))
}

// Function is a definition: a prototype plus a single body expression
// whose value is the function's return value.
type Function struct {
	Proto *Prototype
	Body  Expr
}

func (*Function) exprNode() {}
func (f *Function) String() string {
	return fmt.Sprintf("def %s %s", f.Proto, f.Body)
}

// IfExpr represents "if Cond then Then else Else". Both branches are
// mandatory since the whole construct produces a value.
type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (*IfExpr) exprNode() {}
func (i *IfExpr) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", i.Cond, i.Then, i.Else)
}

// ForExpr represents "for Var = Start, End [, Step] in Body". Step is nil
// when omitted and defaults to 1.0 at generation time. The loop itself
// evaluates to 0.0.
type ForExpr struct {
	Var   string
	Start Expr
	End   Expr
	Step  Expr // optional
	Body  Expr
}

func (*ForExpr) exprNode() {}
func (f *ForExpr) String() string {
	if f.Step != nil {
		return fmt.Sprintf("(for %s = %s, %s, %s in %s)", f.Var, f.Start, f.End, f.Step, f.Body)
	}
	return fmt.Sprintf("(for %s = %s, %s in %s)", f.Var, f.Start, f.End, f.Body)
}
