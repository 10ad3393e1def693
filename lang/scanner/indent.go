package scanner

import "github.com/mna/gart/lang/token"

// Tab policy: a space is one column wide, a tab is four. Mixed tabs and
// spaces are accepted, indentation levels compare by total width only.
const tabWidth = 4

// resolveIndent compares the pending indentation target against the top of
// the indent stack and emits at most one INDENT or DEDENT token per call;
// unwinding several nested indents takes as many calls.
func (s *Scanner) resolveIndent() (token.Token, bool) {
	cur := s.indents[len(s.indents)-1]
	switch {
	case s.indentTarget == cur:
		return token.Token{}, false

	case s.indentTarget > cur:
		s.indents = append(s.indents, s.indentTarget)
		return s.make(token.INDENT), true

	default:
		s.indents = s.indents[:len(s.indents)-1]
		if len(s.indents) == 0 || s.indentTarget > s.indents[len(s.indents)-1] {
			// a dedent must land on a column that is still on the stack
			return s.errToken("Inconsistent indent."), true
		}
		return s.make(token.DEDENT), true
	}
}

// newline consumes a line break if the cursor is at one, measures the
// indentation of the next non-blank line to set the indent target, and
// returns a NEWLINE token. Blank and whitespace-only lines carry no
// indentation signal, the indent of the next non-blank line wins. A line that
// indents without a preceding ':' , or that fails to indent after one, turns
// the NEWLINE into an ERROR token.
func (s *Scanner) newline() (token.Token, bool) {
	if !s.match('\n') {
		return token.Token{}, false
	}
	nl := s.make(token.NEWLINE)
	s.line++

	col := 0
	for {
		switch c := s.peek(); c {
		case ' ':
			col++
			s.advance()
		case '\t':
			col += tabWidth
			s.advance()
		case '\n':
			if tok, ok := s.newline(); ok && tok.Kind == token.ERROR {
				return tok, true
			}
			return nl, true
		case -1:
			s.indentTarget = 0
			return nl, true
		default:
			cur := s.indents[len(s.indents)-1]
			if s.hasPrev {
				if s.prev == token.COLON {
					if col <= cur {
						return s.errToken("Must indent the following code after ':'."), true
					}
				} else if col > cur {
					return s.errToken("Cannot indent code after newline."), true
				}
			}
			s.indentTarget = col
			return nl, true
		}
	}
}
