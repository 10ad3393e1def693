package compiler

import "fmt"

// An Opcode is a single-byte instruction of the virtual machine.
type Opcode uint8

// "x POP -" is a "stack picture" that describes the state of the stack before
// and after execution of the instruction.
//
// OP<index> indicates an immediate operand: a one-byte index into the
// constant pool, a one-byte global or local slot, a one-byte argument count,
// or a two-byte big-endian jump distance.
const ( //nolint:revive
	CONSTANT Opcode = iota //       - CONSTANT<index> value
	POP                    //       x POP -
	NULL                   //       - NULL null
	TRUE                   //       - TRUE true
	FALSE                  //       - FALSE false
	EQUAL                  //     x y EQUAL bool
	NOT                    //       x NOT bool
	GREATER                //     x y GREATER bool     (numbers only)
	LESS                   //     x y LESS bool        (numbers only)
	ADD                    //     x y ADD sum          (numbers, or string concatenation)
	SUBTRACT               //     x y SUBTRACT diff    (numbers only)
	MULTIPLY               //     x y MULTIPLY product (numbers only)
	DIVIDE                 //     x y DIVIDE quotient  (numbers only)
	NEGATE                 //       x NEGATE -x        (number only)
	DEFINEGLOBAL           //       x DEFINEGLOBAL<slot> -
	GETGLOBAL              //       - GETGLOBAL<slot> value
	SETGLOBAL              //       x SETGLOBAL<slot> x
	GETLOCAL               //       - GETLOCAL<slot> value
	SETLOCAL               //       x SETLOCAL<slot> x
	JUMP                   //       - JUMP<dist> -       pc += dist
	JUMPIFFALSE            //    cond JUMPIFFALSE<dist> cond   (cond not popped)
	JUMPBACK               //       - JUMPBACK<dist> -   pc -= dist
	CALL                   // f a1 .. an CALL<n> result
	RETURN                 //       x RETURN -

	OpcodeMax = RETURN
)

var opcodeNames = [...]string{
	ADD:          "add",
	CALL:         "call",
	CONSTANT:     "constant",
	DEFINEGLOBAL: "defineglobal",
	DIVIDE:       "divide",
	EQUAL:        "equal",
	FALSE:        "false",
	GETGLOBAL:    "getglobal",
	GETLOCAL:     "getlocal",
	GREATER:      "greater",
	JUMP:         "jump",
	JUMPBACK:     "jumpback",
	JUMPIFFALSE:  "jumpiffalse",
	LESS:         "less",
	MULTIPLY:     "multiply",
	NEGATE:       "negate",
	NOT:          "not",
	NULL:         "null",
	POP:          "pop",
	RETURN:       "return",
	SETGLOBAL:    "setglobal",
	SETLOCAL:     "setlocal",
	SUBTRACT:     "subtract",
	TRUE:         "true",
}

func (op Opcode) String() string {
	if op <= OpcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// OperandSize returns the number of operand bytes that follow the opcode in
// the bytecode stream.
func (op Opcode) OperandSize() int {
	switch op {
	case CONSTANT, DEFINEGLOBAL, GETGLOBAL, SETGLOBAL, GETLOCAL, SETLOCAL, CALL:
		return 1
	case JUMP, JUMPIFFALSE, JUMPBACK:
		return 2
	}
	return 0
}

const variableStackEffect = 0x7f

// stackEffect records the effect on the size of the operand stack of each
// instruction. CALL depends on the argument count, RETURN unwinds a whole
// frame.
var stackEffect = [...]int8{
	ADD:          -1,
	CALL:         variableStackEffect,
	CONSTANT:     +1,
	DEFINEGLOBAL: -1,
	DIVIDE:       -1,
	EQUAL:        -1,
	FALSE:        +1,
	GETGLOBAL:    +1,
	GETLOCAL:     +1,
	GREATER:      -1,
	JUMP:         0,
	JUMPBACK:     0,
	JUMPIFFALSE:  0,
	LESS:         -1,
	MULTIPLY:     -1,
	NEGATE:       0,
	NOT:          0,
	NULL:         +1,
	POP:          -1,
	RETURN:       -1,
	SETGLOBAL:    0,
	SETLOCAL:     0,
	SUBTRACT:     -1,
	TRUE:         +1,
}
