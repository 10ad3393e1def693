package scanner

import "github.com/mna/gart/lang/token"

// ident scans the remainder of an identifier (the first character was already
// consumed) and resolves keywords.
func (s *Scanner) ident() token.Token {
	for c := s.peek(); isAlpha(c) || isDigit(c); c = s.peek() {
		s.advance()
	}
	return s.make(token.LookupKw(s.src[s.start:s.next]))
}

// number scans an integer or a 'digits.digits' float. A trailing dot with no
// digit after it is not part of the number; it is scanned separately and
// produces an ERROR token.
func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.make(token.NUMBER)
}

// str scans a double-quoted string literal, which may span lines.
func (s *Scanner) str() token.Token {
	for {
		switch s.peek() {
		case -1:
			return s.errToken("Unterminated string.")
		case '"':
			s.advance()
			return s.make(token.STRING)
		case '\n':
			s.line++
			s.advance()
		default:
			s.advance()
		}
	}
}
