package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/renameio"
	"github.com/mna/mainer"

	"github.com/mna/gart/lang/compiler"
	"github.com/mna/gart/lang/machine"
)

func (c *Cmd) Disasm(_ context.Context, stdio mainer.Stdio, args []string) error {
	b, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}

	comp := compiler.New(string(b))
	for _, n := range machine.Builtins(stdio.Stdout, stdio.Stdin) {
		comp.DeclareNative(n.Name)
	}
	out, cerrs := comp.Compile()
	if cerrs != nil {
		for _, e := range cerrs {
			fmt.Fprintln(stdio.Stderr, e)
		}
		return cerrs
	}

	listing := compiler.Disassemble(out.Script)
	if c.Out != "" {
		// atomic write, a crash never leaves a half-written listing behind
		if err := renameio.WriteFile(c.Out, []byte(listing), 0o644); err != nil {
			return printError(stdio, err)
		}
		return nil
	}
	fmt.Fprint(stdio.Stdout, listing)
	return nil
}
