package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/gart/internal/filetest"
)

func TestDisassemble(t *testing.T) {
	out, errs := New("var x = 1\n").Compile()
	require.Nil(t, errs)

	want := `== script (arity 0) ==
0000    1 constant 0 (1)
0002    1 defineglobal 0
0004    2 null
0005    2 return
`
	filetest.Diff(t, "listing", want, Disassemble(out.Script))
}

func TestDisassembleNestedFunction(t *testing.T) {
	out, errs := New("fn inc(n):\n    return n + 1\n").Compile()
	require.Nil(t, errs)

	want := `== script (arity 0) ==
0000    3 constant 0 (fn inc)
0002    3 defineglobal 0
0004    3 null
0005    3 return

== inc (arity 1) ==
0000    2 getlocal 1
0002    2 constant 0 (1)
0004    2 add
0005    2 return
0006    3 null
0007    3 return
`
	filetest.Diff(t, "listing", want, Disassemble(out.Script))
}
