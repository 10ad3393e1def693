package machine

import (
	"fmt"

	"github.com/mna/gart/lang/compiler"
)

// A Function is the runtime value of a compiled function. The constants of
// its chunk are converted to runtime values once, at load time, so that a
// function constant keeps a single identity no matter how often it is read.
type Function struct {
	code      *compiler.Function
	constants []Value
}

func newFunction(cf *compiler.Function) *Function {
	fn := &Function{
		code:      cf,
		constants: make([]Value, len(cf.Chunk.Constants)),
	}
	for i, ct := range cf.Chunk.Constants {
		switch ct := ct.(type) {
		case float64:
			fn.constants[i] = Number(ct)
		case string:
			fn.constants[i] = String(ct)
		case *compiler.Function:
			fn.constants[i] = newFunction(ct)
		default:
			panic(fmt.Sprintf("unexpected constant %T: %[1]v", ct))
		}
	}
	return fn
}

// Name returns the function's declared name; the top-level function is named
// "script".
func (fn *Function) Name() string { return fn.code.Name }

// Arity returns the number of parameters.
func (fn *Function) Arity() uint8 { return fn.code.Arity }

func (fn *Function) String() string { return "fn " + fn.code.Name }
func (fn *Function) Type() string   { return "function" }
