package machine

import (
	"io"
	"os"

	"github.com/mna/gart/lang/compiler"
)

// Config customizes an interpreter. The zero value uses the process standard
// streams, installs only the builtin natives and sets no step limit.
type Config struct {
	// Stdout and Stdin are the streams the builtin natives (print, input,
	// clear) talk to. If nil, os.Stdout and os.Stdin are used.
	Stdout io.Writer
	Stdin  io.Reader

	// MaxSteps caps the number of opcodes executed, 0 means no limit.
	MaxSteps uint64

	// Natives are caller-supplied native functions, installed after the
	// builtins.
	Natives []*Native
}

// An Interp wires the scanner, the compiler and the machine together. It
// compiles the source with the builtin and caller-supplied natives declared,
// and exposes run-to-completion and single-step execution.
type Interp struct {
	m *Machine
}

// New compiles source and returns an interpreter ready to run it, or the
// list of accumulated compile errors.
func New(source string, cfg *Config) (*Interp, compiler.ErrorList) {
	if cfg == nil {
		cfg = &Config{}
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	natives := Builtins(stdout, stdin)
	natives = append(natives, cfg.Natives...)

	comp := compiler.New(source)
	for _, n := range natives {
		comp.DeclareNative(n.Name)
	}
	out, errs := comp.Compile()
	if errs != nil {
		return nil, errs
	}

	return &Interp{m: NewMachine(out.Script, out.Globals, natives, cfg.MaxSteps)}, nil
}

// Run executes the program to completion.
func (i *Interp) Run() error { return i.m.Run() }

// Step executes a single opcode and reports whether more steps remain.
func (i *Interp) Step() (bool, error) { return i.m.Step() }
