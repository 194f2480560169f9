package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/llir/llvm/ir"

	"github.com/W2YUCR/kaleidoscope/pkg/compiler"
)

// Demonstration driver: reads top-level units from a script or stdin and
// prints each unit's LLVM IR. Execution (JIT, linking, function removal)
// belongs to a separate collaborator and is deliberately absent here.
func main() {
	in := os.Stdin
	interactive := true
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
		interactive = false
	}

	if err := run(bufio.NewReader(in), interactive); err != nil {
		os.Exit(1)
	}
}

func run(src io.RuneScanner, interactive bool) error {
	parser := compiler.NewParser(compiler.NewLexer(src))
	registry := compiler.NewPrototypeRegistry()

	for {
		if interactive {
			fmt.Fprint(os.Stderr, ">>> ")
		}

		module, v, err := compiler.CompileUnit(parser, registry)
		if errors.Is(err, io.EOF) {
			return nil
		}

		var perr *compiler.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintln(os.Stderr, "parse error:", perr.Msg)
			fmt.Fprintln(os.Stderr, "  offending token:", perr.Tok)
			parser.Next() // step over it so the next unit starts fresh
			if !interactive {
				return err
			}
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "codegen error:", err)
			if !interactive {
				return err
			}
			continue
		}

		if fn, ok := v.(*ir.Func); ok && fn.Name() == compiler.AnonFuncName {
			fmt.Println("; anonymous expression, ready for evaluation")
		}
		fmt.Print(module.String())
	}
}
