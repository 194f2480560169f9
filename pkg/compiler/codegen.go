package compiler

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Codegen lowers one AST unit into LLVM IR. Every value in the language is
// a double: parameters, return values and intermediates alike.
//
// A Codegen owns one module, the unit currently being generated. The
// prototype registry is shared across units of a session so later units
// can call functions from earlier ones; everything else (insertion block,
// named-value scope, block labels) is reset per function.
type Codegen struct {
	// Module receives the unit's declarations and definitions. Drivers
	// hand it to the execution collaborator once Generate succeeds.
	Module *ir.Module

	registry    *PrototypeRegistry
	block       *ir.Block              // current insertion point
	namedValues map[string]value.Value // in-scope name -> backend value
	labels      map[string]int         // per-function block label uniquifier
}

// NewCodegen returns a Codegen with a fresh empty module whose function
// resolution goes through registry.
func NewCodegen(registry *PrototypeRegistry) *Codegen {
	return &Codegen{
		Module:      ir.NewModule(),
		registry:    registry,
		namedValues: make(map[string]value.Value),
		labels:      make(map[string]int),
	}
}

// newBlock appends a block to f with a unique label derived from base.
// The first use of a base keeps the bare name, later ones get a suffix,
// since llir does not uniquify duplicate explicit labels.
func (cg *Codegen) newBlock(f *ir.Func, base string) *ir.Block {
	n := cg.labels[base]
	cg.labels[base]++
	if n > 0 {
		base = fmt.Sprintf("%s%d", base, n)
	}
	return f.NewBlock(base)
}

// lookupFunc returns the function already materialized in the current
// module under name, or nil.
func (cg *Codegen) lookupFunc(name string) *ir.Func {
	for _, f := range cg.Module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// getFunc resolves name to a function usable from the current module:
// first whatever the module already holds, then a fresh declaration
// re-emitted from the registry. Returns nil if the name is unknown.
func (cg *Codegen) getFunc(name string) *ir.Func {
	if f := cg.lookupFunc(name); f != nil {
		return f
	}
	if proto, ok := cg.registry.Get(name); ok {
		return cg.genPrototype(proto)
	}
	return nil
}

// removeFunc erases f from the module. Used to drop a partially emitted
// definition when its body fails to generate.
func (cg *Codegen) removeFunc(f *ir.Func) {
	for i, g := range cg.Module.Funcs {
		if g == f {
			cg.Module.Funcs = append(cg.Module.Funcs[:i], cg.Module.Funcs[i+1:]...)
			return
		}
	}
}

// Generate lowers one AST node and returns the backend value holding its
// result. For a *Function or *Prototype root the returned value is the
// *ir.Func itself; drivers compare its Name against AnonFuncName to spot
// an immediately evaluable anonymous unit. Any error aborts the whole
// unit: the enclosing function, if any, has already been erased from the
// module by the time Generate returns.
func (cg *Codegen) Generate(e Expr) (value.Value, error) {
	switch n := e.(type) {
	case *NumberExpr:
		return constant.NewFloat(types.Double, n.Value), nil
	case *VariableExpr:
		return cg.genVariable(n)
	case *BinaryExpr:
		return cg.genBinary(n)
	case *CallExpr:
		return cg.genCall(n)
	case *Prototype:
		// An extern unit: record the declaration for later units before
		// materializing it in this one.
		cg.registry.Insert(n)
		return cg.genPrototype(n), nil
	case *Function:
		return cg.genFunction(n)
	case *IfExpr:
		return cg.genIf(n)
	case *ForExpr:
		return cg.genFor(n)
	}
	return nil, fmt.Errorf("codegen: unhandled node %T", e)
}

func (cg *Codegen) genVariable(n *VariableExpr) (value.Value, error) {
	if v, ok := cg.namedValues[n.Name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnboundVariable, n.Name)
}

// genBinary evaluates the left operand fully before the right one; the
// order is observable through call side effects and part of the contract.
func (cg *Codegen) genBinary(n *BinaryExpr) (value.Value, error) {
	lhs, err := cg.Generate(n.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := cg.Generate(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "+":
		return cg.block.NewFAdd(lhs, rhs), nil
	case "-":
		return cg.block.NewFSub(lhs, rhs), nil
	case "*":
		return cg.block.NewFMul(lhs, rhs), nil
	case "<":
		// Unordered < gives an i1; widen it back to 0.0 / 1.0.
		cmp := cg.block.NewFCmp(enum.FPredULT, lhs, rhs)
		return cg.block.NewUIToFP(cmp, types.Double), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, n.Op)
}

func (cg *Codegen) genCall(n *CallExpr) (value.Value, error) {
	callee := cg.getFunc(n.Callee)
	if callee == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, n.Callee)
	}
	if len(callee.Params) != len(n.Args) {
		return nil, fmt.Errorf("%w: %s takes %d argument(s), got %d",
			ErrArityMismatch, n.Callee, len(callee.Params), len(n.Args))
	}

	args := make([]value.Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := cg.Generate(arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return cg.block.NewCall(callee, args...), nil
}

// genPrototype declares the function signature in the module: double
// parameters, double return, parameter positions bound to their declared
// names. Declaring a name the module already holds returns the existing
// declaration, which is what makes forward references work.
func (cg *Codegen) genPrototype(p *Prototype) *ir.Func {
	if f := cg.lookupFunc(p.Name); f != nil {
		return f
	}

	params := make([]*ir.Param, len(p.Params))
	for i, name := range p.Params {
		params[i] = ir.NewParam(name, types.Double)
	}
	return cg.Module.NewFunc(p.Name, types.Double, params...)
}

// genFunction materializes a definition: registers its prototype for
// later units, opens an entry block, binds exactly the parameters into a
// fresh scope, generates the single body expression and returns its
// value. If the body fails, the half-built function is erased from the
// module before the error propagates, so a later attempt to define the
// same name starts clean.
func (cg *Codegen) genFunction(fn *Function) (value.Value, error) {
	cg.registry.Insert(fn.Proto)
	f := cg.getFunc(fn.Proto.Name)
	if f == nil {
		f = cg.genPrototype(fn.Proto)
	}

	cg.labels = make(map[string]int)
	cg.block = cg.newBlock(f, "entry")

	cg.namedValues = make(map[string]value.Value)
	for _, param := range f.Params {
		cg.namedValues[param.Name()] = param
	}

	ret, err := cg.Generate(fn.Body)
	if err != nil {
		cg.removeFunc(f)
		return nil, err
	}
	cg.block.NewRet(ret)

	if err := verifyFunc(f); err != nil {
		cg.removeFunc(f)
		return nil, err
	}
	return f, nil
}

// genIf lowers a conditional to the usual three-block shape: branch on
// "cond != 0.0" into then/else, with both branches joining at a merge
// block whose phi selects the branch value.
func (cg *Codegen) genIf(n *IfExpr) (value.Value, error) {
	f := cg.block.Parent

	cond, err := cg.Generate(n.Cond)
	if err != nil {
		return nil, err
	}
	condBool := cg.block.NewFCmp(enum.FPredONE, cond, constant.NewFloat(types.Double, 0))

	thenBlock := cg.newBlock(f, "then")
	elseBlock := cg.newBlock(f, "else")
	cg.block.NewCondBr(condBool, thenBlock, elseBlock)

	// Either branch may move the insertion point (nested ifs, loops), so
	// the phi's predecessors are the blocks each branch ends in, not the
	// ones it starts in.
	cg.block = thenBlock
	thenValue, err := cg.Generate(n.Then)
	if err != nil {
		return nil, err
	}
	thenEnd := cg.block

	cg.block = elseBlock
	elseValue, err := cg.Generate(n.Else)
	if err != nil {
		return nil, err
	}
	elseEnd := cg.block

	mergeBlock := cg.newBlock(f, "ifcont")
	thenEnd.NewBr(mergeBlock)
	elseEnd.NewBr(mergeBlock)

	cg.block = mergeBlock
	phi := mergeBlock.NewPhi(ir.NewIncoming(thenValue, thenEnd), ir.NewIncoming(elseValue, elseEnd))
	return phi, nil
}

// genFor lowers a loop. The loop variable is a phi starting at the start
// value and rebound to previous+step each iteration; it shadows any outer
// binding of the same name for the loop's duration, and the outer binding
// is restored (or the name removed) afterwards. The loop's own value is
// the constant 0.0.
//
// Known surprising edge case, preserved for compatibility: the continue
// test is "end != 0.0", re-evaluated each iteration. Any nonzero end value
// means "keep looping", so a descending loop whose end expression stays
// nonzero past the intended last iteration does not stop naturally.
func (cg *Codegen) genFor(n *ForExpr) (value.Value, error) {
	f := cg.block.Parent

	startValue, err := cg.Generate(n.Start)
	if err != nil {
		return nil, err
	}
	entry := cg.block // start may have moved the insertion point

	loopBlock := cg.newBlock(f, "loop")
	entry.NewBr(loopBlock)

	cg.block = loopBlock
	loopVar := loopBlock.NewPhi(ir.NewIncoming(startValue, entry))

	shadow, shadowed := cg.namedValues[n.Var]
	cg.namedValues[n.Var] = loopVar

	// The body's value is computed for its side effects only.
	if _, err := cg.Generate(n.Body); err != nil {
		return nil, err
	}

	var stepValue value.Value
	if n.Step != nil {
		if stepValue, err = cg.Generate(n.Step); err != nil {
			return nil, err
		}
	} else {
		stepValue = constant.NewFloat(types.Double, 1)
	}
	nextVar := cg.block.NewFAdd(loopVar, stepValue)

	endValue, err := cg.Generate(n.End)
	if err != nil {
		return nil, err
	}
	endCond := cg.block.NewFCmp(enum.FPredONE, endValue, constant.NewFloat(types.Double, 0))

	loopEnd := cg.block
	afterBlock := cg.newBlock(f, "afterloop")
	loopEnd.NewCondBr(endCond, loopBlock, afterBlock)
	loopVar.Incs = append(loopVar.Incs, ir.NewIncoming(nextVar, loopEnd))

	cg.block = afterBlock

	if shadowed {
		cg.namedValues[n.Var] = shadow
	} else {
		delete(cg.namedValues, n.Var)
	}

	return constant.NewFloat(types.Double, 0), nil
}
