package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"
	"golang.org/x/term"

	"github.com/mna/gart/lang/machine"
)

// runEnv holds the runtime options read from the environment.
type runEnv struct {
	MaxSteps uint64 `env:"GART_MAX_STEPS"`
	NoColor  bool   `env:"NO_COLOR"`
}

func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	var conf runEnv
	if err := env.Parse(&conf); err != nil {
		return printError(stdio, err)
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}

	interp, cerrs := machine.New(string(b), &machine.Config{
		Stdout:   stdio.Stdout,
		Stdin:    stdio.Stdin,
		MaxSteps: conf.MaxSteps,
	})
	if cerrs != nil {
		for _, e := range cerrs {
			fmt.Fprintln(stdio.Stderr, colorize(stdio, conf.NoColor, e.Error()))
		}
		return cerrs
	}

	if err := interp.Run(); err != nil {
		fmt.Fprintln(stdio.Stderr, colorize(stdio, conf.NoColor, "Runtime error: "+err.Error()))
		return err
	}
	return nil
}

// colorize wraps msg in red when stderr is a terminal and color is not
// disabled.
func colorize(stdio mainer.Stdio, noColor bool, msg string) string {
	if noColor {
		return msg
	}
	f, ok := stdio.Stderr.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return msg
	}
	return "\x1b[31m" + msg + "\x1b[0m"
}
