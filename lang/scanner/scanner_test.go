package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/gart/lang/scanner"
	"github.com/mna/gart/lang/token"
)

func tok(kind token.Kind, start, length, line int) token.Token {
	return token.Token{Kind: kind, Start: start, Length: length, Line: line}
}

// assertTokens scans src to EOF and requires the exact token stream.
func assertTokens(t *testing.T, src string, want []token.Token) {
	t.Helper()

	var s scanner.Scanner
	s.Init(src, nil)
	for i, w := range want {
		require.Equal(t, w, s.Scan(), "token index: %d", i)
	}
}

func TestSingleStatement(t *testing.T) {
	assertTokens(t, "var x = 1 + 1", []token.Token{
		tok(token.VAR, 0, 3, 1),
		tok(token.IDENT, 4, 1, 1),
		tok(token.EQ, 6, 1, 1),
		tok(token.NUMBER, 8, 1, 1),
		tok(token.PLUS, 10, 1, 1),
		tok(token.NUMBER, 12, 1, 1),
		tok(token.EOF, 13, 0, 1),
	})
}

func TestErrorRandomIndent(t *testing.T) {
	src := "\nprint \"hello\"\n    print \"world\"\n"
	assertTokens(t, src, []token.Token{
		tok(token.NEWLINE, 0, 1, 1),

		tok(token.IDENT, 1, 5, 2),
		tok(token.STRING, 7, 7, 2),

		tok(token.ERROR, 15, 4, 3),

		tok(token.IDENT, 19, 5, 3),
		tok(token.STRING, 25, 7, 3),
		tok(token.NEWLINE, 32, 1, 3),
		tok(token.EOF, 33, 0, 4),
	})
}

func TestErrorMissingIndentAfterColon(t *testing.T) {
	src := "\nif x <= 1:\nprint \"hi\"\n"
	assertTokens(t, src, []token.Token{
		tok(token.NEWLINE, 0, 1, 1),

		tok(token.IF, 1, 2, 2),
		tok(token.IDENT, 4, 1, 2),
		tok(token.LE, 6, 2, 2),
		tok(token.NUMBER, 9, 1, 2),
		tok(token.COLON, 10, 1, 2),

		tok(token.ERROR, 12, 0, 3),

		tok(token.IDENT, 12, 5, 3),
		tok(token.STRING, 18, 4, 3),
		tok(token.NEWLINE, 22, 1, 3),
		tok(token.EOF, 23, 0, 4),
	})
}

func TestGapInIndent(t *testing.T) {
	src := "\nif x <= 1:\n    print \"hi\"\n    print \"hello!\"\n\n    print \"hola\"\n"
	assertTokens(t, src, []token.Token{
		tok(token.NEWLINE, 0, 1, 1),

		tok(token.IF, 1, 2, 2),
		tok(token.IDENT, 4, 1, 2),
		tok(token.LE, 6, 2, 2),
		tok(token.NUMBER, 9, 1, 2),
		tok(token.COLON, 10, 1, 2),
		tok(token.NEWLINE, 11, 1, 2),

		tok(token.INDENT, 12, 4, 3),
		tok(token.IDENT, 16, 5, 3),
		tok(token.STRING, 22, 4, 3),
		tok(token.NEWLINE, 26, 1, 3),

		tok(token.IDENT, 31, 5, 4),
		tok(token.STRING, 37, 8, 4),
		tok(token.NEWLINE, 45, 1, 4),

		tok(token.IDENT, 51, 5, 6),
		tok(token.STRING, 57, 6, 6),
		tok(token.NEWLINE, 63, 1, 6),
		tok(token.DEDENT, 64, 0, 7),

		tok(token.EOF, 64, 0, 7),
	})
}

func TestIndentedBlankLine(t *testing.T) {
	// the blank line has deeper indentation than the block, but since it
	// holds no code it carries no indentation signal
	src := "\nif x <= 1:\n    print \"x greater than 1\"\n            \nif x == 42:\n    print \"42\"\n"
	assertTokens(t, src, []token.Token{
		tok(token.NEWLINE, 0, 1, 1),

		tok(token.IF, 1, 2, 2),
		tok(token.IDENT, 4, 1, 2),
		tok(token.LE, 6, 2, 2),
		tok(token.NUMBER, 9, 1, 2),
		tok(token.COLON, 10, 1, 2),
		tok(token.NEWLINE, 11, 1, 2),

		tok(token.INDENT, 12, 4, 3),
		tok(token.IDENT, 16, 5, 3),
		tok(token.STRING, 22, 18, 3),
		tok(token.NEWLINE, 40, 1, 3),
		tok(token.DEDENT, 54, 0, 5),

		tok(token.IF, 54, 2, 5),
		tok(token.IDENT, 57, 1, 5),
		tok(token.EQEQ, 59, 2, 5),
		tok(token.NUMBER, 62, 2, 5),
		tok(token.COLON, 64, 1, 5),
		tok(token.NEWLINE, 65, 1, 5),

		tok(token.INDENT, 66, 4, 6),
		tok(token.IDENT, 70, 5, 6),
		tok(token.STRING, 76, 4, 6),
		tok(token.NEWLINE, 80, 1, 6),
		tok(token.DEDENT, 81, 0, 7),

		tok(token.EOF, 81, 0, 7),
	})
}

func TestNestedIndents(t *testing.T) {
	src := "\nvar x = 42\nif x > 1:\n    print \"x greater than 1\"\n    if x == 42:\n        print \"x is 42\"\n"
	assertTokens(t, src, []token.Token{
		tok(token.NEWLINE, 0, 1, 1),
		tok(token.VAR, 1, 3, 2),
		tok(token.IDENT, 5, 1, 2),
		tok(token.EQ, 7, 1, 2),
		tok(token.NUMBER, 9, 2, 2),
		tok(token.NEWLINE, 11, 1, 2),
		tok(token.IF, 12, 2, 3),
		tok(token.IDENT, 15, 1, 3),
		tok(token.GT, 17, 1, 3),
		tok(token.NUMBER, 19, 1, 3),
		tok(token.COLON, 20, 1, 3),
		tok(token.NEWLINE, 21, 1, 3),
		tok(token.INDENT, 22, 4, 4),
		tok(token.IDENT, 26, 5, 4),
		tok(token.STRING, 32, 18, 4),
		tok(token.NEWLINE, 50, 1, 4),
		tok(token.IF, 55, 2, 5),
		tok(token.IDENT, 58, 1, 5),
		tok(token.EQEQ, 60, 2, 5),
		tok(token.NUMBER, 63, 2, 5),
		tok(token.COLON, 65, 1, 5),
		tok(token.NEWLINE, 66, 1, 5),
		tok(token.INDENT, 67, 8, 6),
		tok(token.IDENT, 75, 5, 6),
		tok(token.STRING, 81, 9, 6),
		tok(token.NEWLINE, 90, 1, 6),
		tok(token.DEDENT, 91, 0, 7),
		tok(token.DEDENT, 91, 0, 7),
		tok(token.EOF, 91, 0, 7),
	})
}

func TestInlineWhitespace(t *testing.T) {
	src := "\nvar    x   =     42\n       \n                 \n\nprint   \"x is 42\"\n"
	assertTokens(t, src, []token.Token{
		tok(token.NEWLINE, 0, 1, 1),
		tok(token.VAR, 1, 3, 2),
		tok(token.IDENT, 8, 1, 2),
		tok(token.EQ, 12, 1, 2),
		tok(token.NUMBER, 18, 2, 2),
		tok(token.NEWLINE, 20, 1, 2),

		tok(token.IDENT, 48, 5, 6),
		tok(token.STRING, 56, 9, 6),
		tok(token.NEWLINE, 65, 1, 6),

		tok(token.EOF, 66, 0, 7),
	})
}

func TestErrorUnrecognisedToken(t *testing.T) {
	assertTokens(t, "x = $", []token.Token{
		tok(token.IDENT, 0, 1, 1),
		tok(token.EQ, 2, 1, 1),
		tok(token.ERROR, 4, 1, 1),
		tok(token.EOF, 5, 0, 1),
	})
}

func TestErrorUnterminatedString(t *testing.T) {
	assertTokens(t, `x = "my_string`, []token.Token{
		tok(token.IDENT, 0, 1, 1),
		tok(token.EQ, 2, 1, 1),
		tok(token.ERROR, 4, 10, 1),
		tok(token.EOF, 14, 0, 1),
	})
}

func TestMultilineString(t *testing.T) {
	src := "\nx = \"line 1\nline 2\"\n"
	assertTokens(t, src, []token.Token{
		tok(token.NEWLINE, 0, 1, 1),
		tok(token.IDENT, 1, 1, 2),
		tok(token.EQ, 3, 1, 2),
		tok(token.STRING, 5, 15, 3),
		tok(token.NEWLINE, 20, 1, 3),
		tok(token.EOF, 21, 0, 4),
	})
}

func TestKeywords(t *testing.T) {
	// print is an ordinary identifier, it names a native function
	src := "and else false for fn if null or print return true var while"
	assertTokens(t, src, []token.Token{
		tok(token.AND, 0, 3, 1),
		tok(token.ELSE, 4, 4, 1),
		tok(token.FALSE, 9, 5, 1),
		tok(token.FOR, 15, 3, 1),
		tok(token.FN, 19, 2, 1),
		tok(token.IF, 22, 2, 1),
		tok(token.NULL, 25, 4, 1),
		tok(token.OR, 30, 2, 1),
		tok(token.IDENT, 33, 5, 1),
		tok(token.RETURN, 39, 6, 1),
		tok(token.TRUE, 46, 4, 1),
		tok(token.VAR, 51, 3, 1),
		tok(token.WHILE, 55, 5, 1),
		tok(token.EOF, 60, 0, 1),
	})
}

func TestIdentifiersContainingKeywords(t *testing.T) {
	src := "_and _else _false _for _fn if2 _null oor aprint _return true_ var_ _while_"
	assertTokens(t, src, []token.Token{
		tok(token.IDENT, 0, 4, 1),
		tok(token.IDENT, 5, 5, 1),
		tok(token.IDENT, 11, 6, 1),
		tok(token.IDENT, 18, 4, 1),
		tok(token.IDENT, 23, 3, 1),
		tok(token.IDENT, 27, 3, 1),
		tok(token.IDENT, 31, 5, 1),
		tok(token.IDENT, 37, 3, 1),
		tok(token.IDENT, 41, 6, 1),
		tok(token.IDENT, 48, 7, 1),
		tok(token.IDENT, 56, 5, 1),
		tok(token.IDENT, 62, 4, 1),
		tok(token.IDENT, 67, 7, 1),
		tok(token.EOF, 74, 0, 1),
	})
}

func TestOperatorTokens(t *testing.T) {
	src := "+ - * / < > ! = <= >= != == and or"
	assertTokens(t, src, []token.Token{
		tok(token.PLUS, 0, 1, 1),
		tok(token.MINUS, 2, 1, 1),
		tok(token.STAR, 4, 1, 1),
		tok(token.SLASH, 6, 1, 1),
		tok(token.LT, 8, 1, 1),
		tok(token.GT, 10, 1, 1),
		tok(token.BANG, 12, 1, 1),
		tok(token.EQ, 14, 1, 1),
		tok(token.LE, 16, 2, 1),
		tok(token.GE, 19, 2, 1),
		tok(token.BANGEQ, 22, 2, 1),
		tok(token.EQEQ, 25, 2, 1),
		tok(token.AND, 28, 3, 1),
		tok(token.OR, 32, 2, 1),
		tok(token.EOF, 34, 0, 1),
	})
}

func TestDelimiterTokens(t *testing.T) {
	assertTokens(t, ": , ( )", []token.Token{
		tok(token.COLON, 0, 1, 1),
		tok(token.COMMA, 2, 1, 1),
		tok(token.LPAREN, 4, 1, 1),
		tok(token.RPAREN, 6, 1, 1),
		tok(token.EOF, 7, 0, 1),
	})
}

func TestNumbers(t *testing.T) {
	assertTokens(t, "2 24 2.394 0.1", []token.Token{
		tok(token.NUMBER, 0, 1, 1),
		tok(token.NUMBER, 2, 2, 1),
		tok(token.NUMBER, 5, 5, 1),
		tok(token.NUMBER, 11, 3, 1),
		tok(token.EOF, 14, 0, 1),
	})
}

func TestErrorTrailingDecimal(t *testing.T) {
	assertTokens(t, "var x = 2.", []token.Token{
		tok(token.VAR, 0, 3, 1),
		tok(token.IDENT, 4, 1, 1),
		tok(token.EQ, 6, 1, 1),
		tok(token.NUMBER, 8, 1, 1),
		tok(token.ERROR, 9, 1, 1),
		tok(token.EOF, 10, 0, 1),
	})
}

func TestEmptySource(t *testing.T) {
	assertTokens(t, "", []token.Token{
		tok(token.EOF, 0, 0, 1),
	})
}

func TestEOFDedentsWithoutFinalNewline(t *testing.T) {
	// indentation still open at EOF is closed by implicit dedents, even when
	// the file does not end with a newline
	assertTokens(t, "if x:\n    y", []token.Token{
		tok(token.IF, 0, 2, 1),
		tok(token.IDENT, 3, 1, 1),
		tok(token.COLON, 4, 1, 1),
		tok(token.NEWLINE, 5, 1, 1),
		tok(token.INDENT, 6, 4, 2),
		tok(token.IDENT, 10, 1, 2),
		tok(token.DEDENT, 11, 0, 2),
		tok(token.EOF, 11, 0, 2),
	})
}

func TestIndentDedentBalance(t *testing.T) {
	src := "if a:\n    if b:\n        c\nif d:\n    e\n"

	var s scanner.Scanner
	s.Init(src, nil)

	var indents, dedents int
	for {
		tk := s.Scan()
		switch tk.Kind {
		case token.INDENT:
			indents++
		case token.DEDENT:
			dedents++
		}
		if tk.Kind == token.EOF {
			break
		}
	}
	assert.Equal(t, 3, indents)
	assert.Equal(t, indents, dedents)
}

func TestErrHandler(t *testing.T) {
	type scanErr struct {
		tok token.Token
		msg string
	}
	var errs []scanErr

	var s scanner.Scanner
	s.Init("var x = $\n", func(tok token.Token, msg string) {
		errs = append(errs, scanErr{tok, msg})
	})
	for s.Scan().Kind != token.EOF {
	}

	require.Len(t, errs, 1)
	assert.Equal(t, tok(token.ERROR, 8, 1, 1), errs[0].tok)
	assert.Equal(t, "Unexpected character.", errs[0].msg)
}

func TestErrHandlerInconsistentIndent(t *testing.T) {
	// dedenting to a column that was never on the indent stack
	src := "if a:\n    b\n  c\n"

	var msgs []string
	var s scanner.Scanner
	s.Init(src, func(_ token.Token, msg string) { msgs = append(msgs, msg) })
	for s.Scan().Kind != token.EOF {
	}

	require.NotEmpty(t, msgs)
	assert.Equal(t, "Inconsistent indent.", msgs[0])
}

func TestScanAfterEOF(t *testing.T) {
	var s scanner.Scanner
	s.Init("x", nil)

	require.Equal(t, token.IDENT, s.Scan().Kind)
	require.Equal(t, token.EOF, s.Scan().Kind)
	require.Equal(t, token.EOF, s.Scan().Kind)
}
