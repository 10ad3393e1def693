// Package scanner tokenizes gart source text on demand, synthesizing INDENT,
// DEDENT and NEWLINE tokens from the off-side (indentation based) block
// structure of the language.
package scanner

import (
	"unicode/utf8"

	"github.com/mna/gart/lang/token"
)

// ErrHandler is called for each erroneous lexeme encountered while scanning.
// The token is the ERROR token that was produced, its span covering the
// offending lexeme, and msg describes the problem. The scanner stays usable
// after an error and resumes on the next Scan call.
type ErrHandler func(tok token.Token, msg string)

// Scanner tokenizes a source file for the compiler to consume. Call Init
// before the first Scan.
type Scanner struct {
	// immutable state after Init
	src string
	err ErrHandler

	// mutable scanning state
	start, next  int   // start of current lexeme, read cursor (byte offsets)
	line         int   // 1-based line of the read cursor
	indents      []int // stack of open indentation column widths
	indentTarget int   // column the next logical line of code starts at
	prev         token.Kind
	hasPrev      bool
}

// Init initializes the scanner to tokenize a new source buffer. The error
// handler may be nil.
func (s *Scanner) Init(src string, errh ErrHandler) {
	s.src = src
	s.err = errh

	s.start, s.next = 0, 0
	s.line = 1
	s.indents = append(s.indents[:0], 0)
	s.indentTarget = 0
	s.prev = token.ERROR
	s.hasPrev = false
}

// Scan returns the next token in the source. Once EOF has been returned,
// subsequent calls keep returning EOF.
func (s *Scanner) Scan() token.Token {
	tok := s.scan()
	s.prev = tok.Kind
	s.hasPrev = true
	return tok
}

func (s *Scanner) scan() token.Token {
	if tok, ok := s.resolveIndent(); ok {
		return tok
	}

	s.skipBlanks()
	s.start = s.next

	if tok, ok := s.newline(); ok {
		return tok
	}

	c, ok := s.advance()
	if !ok {
		// implicit dedents close any indentation still open at EOF
		s.indentTarget = 0
		if tok, ok := s.resolveIndent(); ok {
			return tok
		}
		return s.make(token.EOF)
	}

	switch {
	case isAlpha(c):
		return s.ident()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case ',':
		return s.make(token.COMMA)
	case ':':
		return s.make(token.COLON)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		if s.match('=') {
			return s.make(token.BANGEQ)
		}
		return s.make(token.BANG)
	case '=':
		if s.match('=') {
			return s.make(token.EQEQ)
		}
		return s.make(token.EQ)
	case '<':
		if s.match('=') {
			return s.make(token.LE)
		}
		return s.make(token.LT)
	case '>':
		if s.match('=') {
			return s.make(token.GE)
		}
		return s.make(token.GT)
	case '"':
		return s.str()
	}

	return s.errToken("Unexpected character.")
}

// make builds a token of the given kind spanning the current lexeme and
// starts the next lexeme at the cursor.
func (s *Scanner) make(kind token.Kind) token.Token {
	tok := token.Token{Kind: kind, Start: s.start, Length: s.next - s.start, Line: s.line}
	s.start = s.next
	return tok
}

func (s *Scanner) errToken(msg string) token.Token {
	tok := s.make(token.ERROR)
	if s.err != nil {
		s.err(tok, msg)
	}
	return tok
}

// skipBlanks skips spaces and tabs inside the current line.
func (s *Scanner) skipBlanks() {
	for c := s.peek(); c == ' ' || c == '\t'; c = s.peek() {
		s.advance()
	}
}

// peek returns the rune at the cursor without advancing, or -1 at EOF.
func (s *Scanner) peek() rune {
	if s.next >= len(s.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.next:])
	return r
}

// peekNext returns the rune after the one at the cursor, or -1.
func (s *Scanner) peekNext() rune {
	if s.next >= len(s.src) {
		return -1
	}
	_, w := utf8.DecodeRuneInString(s.src[s.next:])
	if s.next+w >= len(s.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.next+w:])
	return r
}

func (s *Scanner) advance() (rune, bool) {
	if s.next >= len(s.src) {
		return -1, false
	}
	r, w := utf8.DecodeRuneInString(s.src[s.next:])
	s.next += w
	return r, true
}

// match advances only if the rune at the cursor is want.
func (s *Scanner) match(want rune) bool {
	if s.peek() != want {
		return false
	}
	s.advance()
	return true
}

func isAlpha(c rune) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c == '_'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
