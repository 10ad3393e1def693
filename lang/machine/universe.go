package machine

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Builtins returns the native functions every program has access to, in
// their global slot order. The stdio streams are the ones print, input and
// clear talk to.
func Builtins(stdout io.Writer, stdin io.Reader) []*Native {
	in := bufio.NewReader(stdin)

	return []*Native{
		{Name: "time", Arity: 0, Fn: func([]Value) Value {
			return Number(float64(time.Now().UnixNano()) / float64(time.Second))
		}},
		{Name: "print", Arity: 1, Fn: func(args []Value) Value {
			fmt.Fprintln(stdout, args[0])
			return Null
		}},
		{Name: "random_range", Arity: 2, Fn: func(args []Value) Value {
			lo, okLo := args[0].(Number)
			hi, okHi := args[1].(Number)
			if !okLo || !okHi || hi < lo {
				return Null
			}
			return lo + Number(rand.Float64())*(hi-lo)
		}},
		{Name: "number", Arity: 1, Fn: func(args []Value) Value {
			switch v := args[0].(type) {
			case Number:
				return v
			case String:
				f, err := strconv.ParseFloat(string(v), 64)
				if err != nil {
					return Null
				}
				return Number(f)
			}
			return Null
		}},
		{Name: "string", Arity: 1, Fn: func(args []Value) Value {
			switch args[0].(type) {
			case String, Number, Bool, nullType:
				return String(args[0].String())
			}
			return Null
		}},
		{Name: "input", Arity: 1, Fn: func(args []Value) Value {
			fmt.Fprint(stdout, args[0])
			line, _ := in.ReadString('\n')
			return String(strings.TrimSpace(line))
		}},
		{Name: "clear", Arity: 0, Fn: func([]Value) Value {
			fmt.Fprint(stdout, "\x1b[2J\x1b[1;1H")
			return Null
		}},
		{Name: "round", Arity: 1, Fn: func(args []Value) Value {
			if n, ok := args[0].(Number); ok {
				return Number(math.Round(float64(n)))
			}
			return Null
		}},
	}
}
