// Package machine implements the virtual machine that executes the
// bytecode-compiled form of the source code. It also provides the runtime
// representation of the values manipulated by a program and the Interp
// facade that wires the scanner, the compiler and the machine together.
package machine

import (
	"fmt"

	"github.com/mna/gart/lang/compiler"
)

// An EvalError is a fatal runtime error. Execution cannot resume after one:
// the machine clears its stack and returns to the host.
type EvalError struct {
	Msg  string
	Line int // source line of the failing instruction, 0 if unknown
}

func (e *EvalError) Error() string { return e.Msg }

// A frame records one function invocation: the executing function, the index
// in the shared value stack where its locals begin, and the program counter.
// Slot 0 of every frame holds the callee value itself and is never bound to a
// user name.
type frame struct {
	fn          *Function
	stackOffset int
	pc          int
}

// A Machine executes compiled bytecode against a value stack and a flat
// array of global slots. It is strictly single-threaded: Call and Return are
// the only points where the active frame changes.
type Machine struct {
	stack   []Value
	globals []Value // nil marks an unset slot
	frames  []frame

	steps    uint64
	maxSteps uint64
}

// NewMachine returns a machine ready to execute the compiled script, with
// the natives installed in global slots 0..len(natives)-1. nglobals is the
// total number of global slots from the compiler output. maxSteps caps the
// number of executed opcodes, 0 means no limit.
func NewMachine(script *compiler.Function, nglobals int, natives []*Native, maxSteps uint64) *Machine {
	m := &Machine{
		globals:  make([]Value, nglobals),
		maxSteps: maxSteps,
	}
	for i, n := range natives {
		m.globals[i] = n
	}
	fn := newFunction(script)
	m.stack = append(m.stack, fn) // slot 0 of the script frame is the callee
	m.frames = append(m.frames, frame{fn: fn})
	return m
}

// Run executes until the top-level function returns or a runtime error
// occurs. It is equivalent to calling Step until no steps remain.
func (m *Machine) Run() error {
	for {
		more, err := m.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Step executes exactly one opcode and reports whether more remain. On a
// runtime error the stack is cleared and the machine is done.
func (m *Machine) Step() (bool, error) {
	if len(m.frames) == 0 {
		return false, nil
	}
	if m.maxSteps > 0 {
		m.steps++
		if m.steps > m.maxSteps {
			return false, m.fail("Maximum execution steps exceeded.")
		}
	}

	fr := &m.frames[len(m.frames)-1]
	chunk := &fr.fn.code.Chunk
	if fr.pc >= len(chunk.Bytes) {
		return false, m.fail("Failed to decode opcode.")
	}

	op := compiler.Opcode(chunk.Bytes[fr.pc])
	fr.pc++

	switch op {
	case compiler.CONSTANT:
		m.push(fr.fn.constants[m.readByte(fr)])

	case compiler.POP:
		m.pop()

	case compiler.NULL:
		m.push(Null)

	case compiler.TRUE:
		m.push(True)

	case compiler.FALSE:
		m.push(False)

	case compiler.EQUAL:
		b := m.pop()
		a := m.pop()
		// structural for primitives, by content for strings, by identity for
		// functions and natives: interface equality gives exactly that
		m.push(Bool(a == b))

	case compiler.NOT:
		m.push(Bool(!Truth(m.pop())))

	case compiler.GREATER, compiler.LESS, compiler.SUBTRACT, compiler.MULTIPLY, compiler.DIVIDE:
		b, okb := m.pop().(Number)
		a, oka := m.pop().(Number)
		if !oka || !okb {
			return false, m.fail("Operands must be numbers.")
		}
		switch op {
		case compiler.GREATER:
			m.push(Bool(a > b))
		case compiler.LESS:
			m.push(Bool(a < b))
		case compiler.SUBTRACT:
			m.push(a - b)
		case compiler.MULTIPLY:
			m.push(a * b)
		case compiler.DIVIDE:
			m.push(a / b)
		}

	case compiler.ADD:
		b := m.pop()
		a := m.pop()
		if as, ok := a.(String); ok {
			if bs, ok := b.(String); ok {
				m.push(as + bs)
				break
			}
		}
		an, oka := a.(Number)
		bn, okb := b.(Number)
		if !oka || !okb {
			return false, m.fail("Add operands must both be strings or numbers")
		}
		m.push(an + bn)

	case compiler.NEGATE:
		n, ok := m.pop().(Number)
		if !ok {
			return false, m.fail("Negate operand must be a number.")
		}
		m.push(-n)

	case compiler.DEFINEGLOBAL:
		m.globals[m.readByte(fr)] = m.pop()

	case compiler.GETGLOBAL:
		v := m.globals[m.readByte(fr)]
		if v == nil {
			return false, m.fail("Undefined variable.")
		}
		m.push(v)

	case compiler.SETGLOBAL:
		slot := m.readByte(fr)
		if m.globals[slot] == nil {
			return false, m.fail("Undefined variable.")
		}
		m.globals[slot] = m.peek() // assignment is an expression, TOS stays

	case compiler.GETLOCAL:
		m.push(m.stack[fr.stackOffset+int(m.readByte(fr))])

	case compiler.SETLOCAL:
		m.stack[fr.stackOffset+int(m.readByte(fr))] = m.peek()

	case compiler.JUMP:
		fr.pc += int(m.readShort(fr))

	case compiler.JUMPIFFALSE:
		dist := int(m.readShort(fr))
		if !Truth(m.peek()) {
			fr.pc += dist
		}

	case compiler.JUMPBACK:
		fr.pc -= int(m.readShort(fr))

	case compiler.CALL:
		argc := int(m.readByte(fr))
		if err := m.call(argc); err != nil {
			return false, err
		}

	case compiler.RETURN:
		ret := m.pop()
		m.stack = m.stack[:fr.stackOffset] // locals and callee slot
		m.frames = m.frames[:len(m.frames)-1]
		if len(m.frames) == 0 {
			return false, nil
		}
		m.push(ret)

	default:
		return false, m.fail("Failed to decode opcode.")
	}
	return true, nil
}

// call implements the CALL opcode. The callee sits below the argc arguments
// on the stack; for a Function call the callee slot becomes slot 0 of the new
// frame, for a Native call the arguments and the callee are replaced by the
// returned value.
func (m *Machine) call(argc int) error {
	calleeIdx := len(m.stack) - 1 - argc
	switch callee := m.stack[calleeIdx].(type) {
	case *Function:
		if argc != int(callee.Arity()) {
			return m.fail(fmt.Sprintf("Expected %d arguments, but got %d.", callee.Arity(), argc))
		}
		m.frames = append(m.frames, frame{fn: callee, stackOffset: calleeIdx})
		return nil

	case *Native:
		if argc != int(callee.Arity) {
			return m.fail(fmt.Sprintf("Expected %d arguments, but got %d.", callee.Arity, argc))
		}
		ret := callee.Fn(m.stack[len(m.stack)-argc:])
		if ret == nil {
			ret = Null
		}
		m.stack = m.stack[:calleeIdx]
		m.push(ret)
		return nil

	default:
		return m.fail("Can only call functions.")
	}
}

func (m *Machine) readByte(fr *frame) byte {
	b := fr.fn.code.Chunk.Bytes[fr.pc]
	fr.pc++
	return b
}

func (m *Machine) readShort(fr *frame) uint16 {
	code := fr.fn.code.Chunk.Bytes
	hi, lo := code[fr.pc], code[fr.pc+1]
	fr.pc += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (m *Machine) push(v Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *Machine) peek() Value { return m.stack[len(m.stack)-1] }

// fail builds the runtime error and clears the machine state; there is no
// exception machinery in the guest language, so no unwinding happens.
func (m *Machine) fail(msg string) error {
	line := 0
	if len(m.frames) > 0 {
		fr := &m.frames[len(m.frames)-1]
		if pc := fr.pc - 1; pc >= 0 && pc < len(fr.fn.code.Chunk.Lines) {
			line = fr.fn.code.Chunk.Lines[pc]
		}
	}
	m.stack = m.stack[:0]
	m.frames = m.frames[:0]
	return &EvalError{Msg: msg, Line: line}
}
