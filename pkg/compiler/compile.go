package compiler

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// CompileUnit parses the next top-level unit from p and lowers it into a
// fresh module whose call resolution goes through registry. It returns the
// unit's module and result value, io.EOF once the source is exhausted, or
// the first lex, parse or generation error. Each unit is its own failure
// domain: a failed unit leaves no function of its own behind, and units
// already compiled stay valid.
func CompileUnit(p *Parser, registry *PrototypeRegistry) (*ir.Module, value.Value, error) {
	node, err := p.ParseUnit()
	if err != nil {
		return nil, nil, err
	}

	cg := NewCodegen(registry)
	v, err := cg.Generate(node)
	if err != nil {
		return nil, nil, err
	}
	return cg.Module, v, nil
}
