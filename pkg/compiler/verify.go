package compiler

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// verifyFunc checks the structural well-formedness of an emitted function
// before the unit is handed to the execution collaborator: every block
// must end in a terminator, and every phi must have exactly one incoming
// value per actual predecessor block. Declarations (no body) are trivially
// valid. Failures wrap ErrVerify.
func verifyFunc(f *ir.Func) error {
	if len(f.Blocks) == 0 {
		return nil
	}

	preds := make(map[*ir.Block][]*ir.Block)
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fmt.Errorf("%w: %s: block %q has no terminator", ErrVerify, f.Name(), b.LocalName)
		}
		for _, succ := range b.Term.Succs() {
			preds[succ] = append(preds[succ], b)
		}
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				continue
			}
			if len(phi.Incs) != len(preds[b]) {
				return fmt.Errorf("%w: %s: phi in %q has %d incoming value(s) for %d predecessor(s)",
					ErrVerify, f.Name(), b.LocalName, len(phi.Incs), len(preds[b]))
			}
			seen := make(map[*ir.Block]bool, len(phi.Incs))
			for _, inc := range phi.Incs {
				pred, ok := inc.Pred.(*ir.Block)
				if !ok {
					return fmt.Errorf("%w: %s: phi in %q has non-block predecessor %v",
						ErrVerify, f.Name(), b.LocalName, inc.Pred)
				}
				if !containsBlock(preds[b], pred) {
					return fmt.Errorf("%w: %s: phi in %q names non-predecessor %q",
						ErrVerify, f.Name(), b.LocalName, pred.LocalName)
				}
				if seen[pred] {
					return fmt.Errorf("%w: %s: phi in %q lists predecessor %q twice",
						ErrVerify, f.Name(), b.LocalName, pred.LocalName)
				}
				seen[pred] = true
			}
		}
	}
	return nil
}

func containsBlock(blocks []*ir.Block, b *ir.Block) bool {
	for _, x := range blocks {
		if x == b {
			return true
		}
	}
	return false
}
