// Package compiler takes the token stream produced by the scanner and
// compiles it to bytecode that can be executed by the virtual machine. The
// compilation is single-pass: bytecode is emitted directly into the chunk of
// the function being compiled, no syntax tree is built. Scope resolution
// (global vs local) and control flow (forward and backward jump patching)
// happen as the tokens are consumed.
package compiler

import (
	"strconv"

	"github.com/dolthub/swiss"
	"github.com/mna/gart/lang/scanner"
	"github.com/mna/gart/lang/token"
)

const (
	// MaxGlobals is the number of global slots addressable by the one-byte
	// operand of the global opcodes.
	MaxGlobals = 256

	maxLocals    = 255
	maxParams    = 255
	maxArgs      = 255
	maxConstants = 256
	maxJump      = 0xffff
)

// A Compiler compiles a single source buffer. It owns a stack of function
// compilers (the top of the stack is the function currently being compiled)
// and the table of global identifiers shared by all of them.
type Compiler struct {
	scan scanner.Scanner
	src  string

	prev, cur token.Token
	panicMode bool
	errs      ErrorList

	globals  *swiss.Map[string, *global]
	nglobals int
	fns      []*fnCompiler
}

// A global tracks one entry of the globals table. An identifier referenced
// before its declaration gets an entry with declared=false and the use site
// recorded; the entry is upgraded when the declaration appears, and any entry
// still undeclared at end-of-compile reports an error per recorded use.
type global struct {
	index    uint8
	declared bool
	uses     []token.Token
}

// A fnCompiler holds the compile-time state of one function. Nested fn
// declarations push a new frame on the compiler's stack and pop it when the
// body is done.
type fnCompiler struct {
	locals     []local
	scopeDepth int
	chunk      Chunk
	arity      uint8
	name       string
}

// A local is a declared local variable; depth -1 marks a variable whose
// initializer is still being compiled, so that it cannot be read inside its
// own initializer.
type local struct {
	tok   token.Token
	depth int
}

// Output is the result of a successful compilation.
type Output struct {
	// Script is the synthetic top-level function wrapping the whole source.
	Script *Function
	// Globals is the number of global slots the program uses, natives
	// included.
	Globals int
}

// New returns a compiler for the given source buffer.
func New(src string) *Compiler {
	c := &Compiler{
		src:     src,
		globals: swiss.NewMap[string, *global](8),
	}
	c.scan.Init(src, c.scanError)
	return c
}

// DeclareNative reserves a global slot for a native function. Natives are
// assigned slots in declaration order starting at 0, and must all be declared
// before Compile. Declaring a native twice is not an error, it keeps its
// first slot.
func (c *Compiler) DeclareNative(name string) uint8 {
	return c.insertGlobal(name, token.Token{}, declOverwrite)
}

// Compile consumes the whole token stream and returns the compiled program,
// or the accumulated errors, sorted by source position, if any were reported.
func (c *Compiler) Compile() (*Output, ErrorList) {
	c.pushFn("script")
	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	script := c.popFn()

	c.globals.Iter(func(_ string, g *global) bool {
		if !g.declared {
			for _, tok := range g.uses {
				c.panicMode = false
				c.errorAt(tok, "Undefined variable.")
			}
		}
		return false
	})

	if len(c.errs) > 0 {
		c.errs.Sort()
		return nil, c.errs
	}
	return &Output{Script: script, Globals: c.nglobals}, nil
}

// ---- declarations and statements ----

func (c *Compiler) declaration() {
	switch {
	case c.match(token.FN):
		c.fnDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.NEWLINE):
		// blank lines at the start of the source scan as a bare NEWLINE
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.INDENT):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) fnDeclaration() {
	c.consume(token.IDENT, "Expect function name.")
	if c.fn().scopeDepth > 0 {
		c.errorAtPrev("Cannot declare function inside another function.")
	}
	nameTok := c.prev
	slot := c.globalIdent(nameTok, true)

	fn := c.function(nameTok.Lexeme(c.src))
	c.emitConstant(fn)
	c.emitOp(DEFINEGLOBAL)
	c.emitByte(slot)
}

// function compiles a function from the '(' of its parameter list through
// the DEDENT closing its body, and returns the compiled Function.
func (c *Compiler) function(name string) *Function {
	c.pushFn(name)
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			if c.fn().arity == maxParams {
				c.errorAtCur("Cannot have more than 255 parameters.")
				break
			}
			c.fn().arity++
			c.consume(token.IDENT, "Expect parameter name.")
			c.declareLocal(c.prev, c.fn().scopeDepth)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.COLON, "Expect ':' after function definition.")
	c.consume(token.NEWLINE, "Expect newline after ':' in function definition.")
	c.consume(token.INDENT, "Expect indentation.")
	c.block()

	return c.popFn()
}

func (c *Compiler) varDeclaration() {
	c.consume(token.IDENT, "Expect variable name.")
	if c.fn().scopeDepth == 0 {
		c.varGlobal()
	} else {
		c.varLocal()
	}
}

func (c *Compiler) varGlobal() {
	slot := c.globalIdent(c.prev, true)
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(NULL)
	}
	c.terminator("Expect newline after expression.")
	c.emitOp(DEFINEGLOBAL)
	c.emitByte(slot)
}

func (c *Compiler) varLocal() {
	c.declareLocal(c.prev, -1)
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(NULL)
	}
	c.terminator("Expect newline after expression.")

	// the initializer is done, the local becomes readable
	fn := c.fn()
	fn.locals[len(fn.locals)-1].depth = fn.scopeDepth
}

// declareLocal registers a new local after checking that the name is not
// already used in the current scope. Shadowing an outer scope is allowed.
func (c *Compiler) declareLocal(tok token.Token, depth int) {
	fn := c.fn()
	for i := len(fn.locals) - 1; i >= 0; i-- {
		l := fn.locals[i]
		if l.depth != -1 && l.depth < fn.scopeDepth {
			break
		}
		if c.identEqual(l.tok, tok) {
			c.errorAtCur("Already a variable with this name in scope.")
			break
		}
	}
	if len(fn.locals) == maxLocals {
		c.errorAtCur("Local variable count has been exceeded.")
	}
	fn.locals = append(fn.locals, local{tok: tok, depth: depth})
}

func (c *Compiler) ifStatement() {
	c.expression()
	c.consume(token.COLON, "Expect ':' after condition.")
	c.consume(token.NEWLINE, "Expect newline after ':'")

	thenJump := c.emitJump(JUMPIFFALSE)
	c.emitOp(POP)
	c.statement()

	elseJump := c.emitJump(JUMP)
	c.patchJump(thenJump)
	c.emitOp(POP)

	if c.match(token.ELSE) {
		// an 'else if' chain continues without a colon of its own
		if !c.check(token.IF) {
			c.consume(token.COLON, "Expect ':' after 'else'.")
			c.consume(token.NEWLINE, "Expect newline after ':'")
		}
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.fn().chunk.Bytes)
	c.expression()
	c.consume(token.COLON, "Expect ':' after condition.")
	c.consume(token.NEWLINE, "Expect newline after ':'")

	exitJump := c.emitJump(JUMPIFFALSE)
	c.emitOp(POP)
	c.statement()
	c.emitBackJump(loopStart)

	c.patchJump(exitJump)
	c.emitOp(POP)
}

func (c *Compiler) returnStatement() {
	if len(c.fns) <= 1 {
		c.errorAtCur("Cannot return from top-level code.")
	}
	if c.check(token.NEWLINE) || c.check(token.EOF) || c.check(token.DEDENT) {
		c.match(token.NEWLINE)
		c.emitOp(NULL)
		c.emitOp(RETURN)
		return
	}
	c.expression()
	c.terminator("Expect newline after return value.")
	c.emitOp(RETURN)
}

func (c *Compiler) block() {
	for !c.check(token.DEDENT) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.DEDENT, "Expect dedent after block.")
}

func (c *Compiler) beginScope() { c.fn().scopeDepth++ }

func (c *Compiler) endScope() {
	fn := c.fn()
	fn.scopeDepth--
	for len(fn.locals) > 0 && fn.locals[len(fn.locals)-1].depth > fn.scopeDepth {
		fn.locals = fn.locals[:len(fn.locals)-1]
		c.emitOp(POP)
	}
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.terminator("Expect newline after expression.")
	c.emitOp(POP)
}

// ---- expressions ----

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := ruleOf(c.prev.Kind).prefix
	if prefix == nil {
		c.errorAtCur("Expected expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= ruleOf(c.cur.Kind).prec {
		c.advance()
		if infix := ruleOf(c.prev.Kind).infix; infix != nil {
			infix(c, canAssign)
		}
	}

	if canAssign && c.match(token.EQ) {
		c.errorAtCur("Invalid assignment target.")
	}
}

func (c *Compiler) binary(_ bool) {
	op := c.prev.Kind
	c.parsePrecedence(ruleOf(op).prec + 1)

	switch op {
	case token.BANGEQ:
		c.emitOp(EQUAL)
		c.emitOp(NOT)
	case token.EQEQ:
		c.emitOp(EQUAL)
	case token.GT:
		c.emitOp(GREATER)
	case token.GE:
		c.emitOp(LESS)
		c.emitOp(NOT)
	case token.LT:
		c.emitOp(LESS)
	case token.LE:
		c.emitOp(GREATER)
		c.emitOp(NOT)
	case token.PLUS:
		c.emitOp(ADD)
	case token.MINUS:
		c.emitOp(SUBTRACT)
	case token.STAR:
		c.emitOp(MULTIPLY)
	case token.SLASH:
		c.emitOp(DIVIDE)
	}
}

func (c *Compiler) unary(_ bool) {
	op := c.prev.Kind
	c.parsePrecedence(precUnary)

	switch op {
	case token.BANG:
		c.emitOp(NOT)
	case token.MINUS:
		c.emitOp(NEGATE)
	}
}

func (c *Compiler) and(_ bool) {
	jump := c.emitJump(JUMPIFFALSE)
	c.emitOp(POP)
	c.parsePrecedence(precAnd)
	c.patchJump(jump)
}

func (c *Compiler) or(_ bool) {
	hop := c.emitJump(JUMPIFFALSE)
	endJump := c.emitJump(JUMP)
	c.patchJump(hop)

	c.emitOp(POP)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) literal(_ bool) {
	switch c.prev.Kind {
	case token.TRUE:
		c.emitOp(TRUE)
	case token.FALSE:
		c.emitOp(FALSE)
	case token.NULL:
		c.emitOp(NULL)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) number(_ bool) {
	f, err := strconv.ParseFloat(c.prev.Lexeme(c.src), 64)
	if err != nil {
		c.errorAtPrev("Failed to parse number.")
		return
	}
	c.emitConstant(f)
}

func (c *Compiler) str(_ bool) {
	lex := c.prev.Lexeme(c.src)
	c.emitConstant(lex[1 : len(lex)-1]) // strip the quotes
}

func (c *Compiler) variable(canAssign bool) {
	tok := c.prev
	getOp, setOp := GETGLOBAL, SETGLOBAL
	slot, isLocal := c.localSlot(tok)
	if isLocal {
		getOp, setOp = GETLOCAL, SETLOCAL
	} else {
		slot = c.globalIdent(tok, false)
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOp(setOp)
		c.emitByte(slot)
	} else {
		c.emitOp(getOp)
		c.emitByte(slot)
	}
}

func (c *Compiler) callExpr(_ bool) {
	argc := c.arguments()
	c.emitOp(CALL)
	c.emitByte(argc)
}

func (c *Compiler) arguments() uint8 {
	var argc uint8
	if !c.check(token.RPAREN) {
		for {
			if argc == maxArgs {
				c.errorAtCur("Cannot have more than 255 arguments.")
				break
			}
			c.expression()
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return argc
}

// ---- scope resolution ----

// localSlot walks the current function's locals from innermost to outermost
// and returns the slot of the first name match, if any.
func (c *Compiler) localSlot(tok token.Token) (uint8, bool) {
	fn := c.fn()
	for i := len(fn.locals) - 1; i >= 0; i-- {
		if c.identEqual(fn.locals[i].tok, tok) {
			if fn.locals[i].depth == -1 {
				c.errorAtCur("Can't read local variable in its own initialiser.")
			}
			return uint8(i), true
		}
	}
	return 0, false
}

func (c *Compiler) globalIdent(tok token.Token, isDecl bool) uint8 {
	mode := ref
	if isDecl {
		mode = decl
	}
	return c.insertGlobal(tok.Lexeme(c.src), tok, mode)
}

type declMode uint8

const (
	ref declMode = iota
	decl
	declOverwrite
)

func (c *Compiler) insertGlobal(name string, tok token.Token, mode declMode) uint8 {
	if g, ok := c.globals.Get(name); ok {
		switch mode {
		case decl:
			if g.declared {
				c.errorAt(tok, "Already a global variable with this name.")
				return 0
			}
			g.declared = true
		case declOverwrite:
			g.declared = true
		default:
			g.uses = append(g.uses, tok)
		}
		return g.index
	}

	if c.nglobals >= MaxGlobals {
		c.errorAtPrev("Too many globals.")
		return 0
	}
	g := &global{index: uint8(c.nglobals), declared: mode != ref}
	if mode == ref {
		g.uses = append(g.uses, tok)
	}
	c.globals.Put(name, g)
	c.nglobals++
	return g.index
}

func (c *Compiler) identEqual(a, b token.Token) bool {
	return a.Length == b.Length && a.Lexeme(c.src) == b.Lexeme(c.src)
}

// ---- function compiler stack ----

func (c *Compiler) fn() *fnCompiler { return c.fns[len(c.fns)-1] }

func (c *Compiler) pushFn(name string) {
	fn := &fnCompiler{name: name}
	// slot 0 of every call frame holds the callee value itself; reserve it
	// with an unnameable local
	fn.locals = append(fn.locals, local{depth: 0})
	c.fns = append(c.fns, fn)
}

// popFn terminates the current function (every path returns: the trailing
// NULL RETURN runs if the body falls through) and pops its compiler.
func (c *Compiler) popFn() *Function {
	c.emitOp(NULL)
	c.emitOp(RETURN)
	fn := c.fns[len(c.fns)-1]
	c.fns = c.fns[:len(c.fns)-1]
	return &Function{Name: fn.name, Arity: fn.arity, Chunk: fn.chunk}
}

// ---- bytecode emission ----

func (c *Compiler) emitByte(b byte) {
	c.fn().chunk.Append(b, c.prev.Line)
}

func (c *Compiler) emitOp(op Opcode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitConstant(v Constant) {
	c.emitOp(CONSTANT)
	c.emitByte(c.makeConstant(v))
}

func (c *Compiler) makeConstant(v Constant) uint8 {
	idx := c.fn().chunk.AddConstant(v)
	if idx >= maxConstants {
		c.errorAtCur("Too many constants in one chunk. Max 256.")
		return 0
	}
	return uint8(idx)
}

// emitJump writes op with a two-byte placeholder operand and returns the
// placeholder's offset for a later patchJump.
func (c *Compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	c.emitByte(0)
	c.emitByte(0)
	return len(c.fn().chunk.Bytes) - 2
}

// patchJump fills the placeholder at offset with the big-endian distance from
// the end of the operand to the current end of the chunk.
func (c *Compiler) patchJump(offset int) {
	chunk := &c.fn().chunk
	dist := len(chunk.Bytes) - offset - 2
	if dist > maxJump {
		c.errorAtCur("Too much code to jump over.")
	}
	chunk.Bytes[offset] = byte(dist >> 8)
	chunk.Bytes[offset+1] = byte(dist)
}

// emitBackJump writes a JUMPBACK to the given chunk offset.
func (c *Compiler) emitBackJump(target int) {
	c.emitOp(JUMPBACK)
	dist := len(c.fn().chunk.Bytes) - target + 2
	if dist > maxJump {
		c.errorAtCur("Too much code to jump over.")
	}
	c.emitByte(byte(dist >> 8))
	c.emitByte(byte(dist))
}

// ---- token stream helpers ----

// advance moves to the next token, skipping ERROR tokens (the scanner has
// already reported them through the error handler).
func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.scan.Scan()
		if c.cur.Kind != token.ERROR {
			break
		}
	}
}

func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.cur.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCur(msg)
}

// terminator consumes the statement-ending NEWLINE. EOF and DEDENT also
// terminate a statement (the last line of a file or of a block does not need
// a line break) but are left for the caller to consume.
func (c *Compiler) terminator(msg string) {
	if c.match(token.NEWLINE) || c.check(token.EOF) || c.check(token.DEDENT) {
		return
	}
	c.errorAtCur(msg)
}

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) check(kind token.Kind) bool {
	return c.cur.Kind == kind
}

// synchronize discards tokens until a statement boundary: just after a
// NEWLINE, or just before a statement-starting keyword.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.cur.Kind != token.EOF {
		if c.prev.Kind == token.NEWLINE {
			return
		}
		switch c.cur.Kind {
		case token.FN, token.VAR, token.FOR, token.IF, token.WHILE, token.RETURN:
			return
		}
		c.advance()
	}
}

// ---- error reporting ----

func (c *Compiler) scanError(tok token.Token, msg string) {
	// lexical errors do not enter panic mode so that several can be reported
	// from a single scan
	c.errs = append(c.errs, &Error{Line: tok.Line, Start: tok.Start, Length: tok.Length, Msg: msg})
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	e := &Error{Line: tok.Line, Start: tok.Start, Length: tok.Length, Msg: msg}
	switch tok.Kind {
	case token.EOF:
		e.AtEnd = true
	case token.ERROR:
	default:
		e.Lexeme = tok.Lexeme(c.src)
	}
	c.errs = append(c.errs, e)
}

func (c *Compiler) errorAtCur(msg string)  { c.errorAt(c.cur, msg) }
func (c *Compiler) errorAtPrev(msg string) { c.errorAt(c.prev, msg) }
