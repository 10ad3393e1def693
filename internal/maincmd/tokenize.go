package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/gart/lang/scanner"
	"github.com/mna/gart/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles prints the token stream of each file to stdout, one token
// per line as "line:start+length: kind [lexeme]". Scanner errors go to
// stderr; the first error, if any, is returned after all files have been
// processed.
func TokenizeFiles(_ context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			_ = printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		src := string(b)

		var s scanner.Scanner
		s.Init(src, func(tok token.Token, msg string) {
			err := fmt.Errorf("%s:%d:%d: %s", file, tok.Line, tok.Start, msg)
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
		})

		for {
			tok := s.Scan()
			fmt.Fprintf(stdio.Stdout, "%d:%d+%d: %s", tok.Line, tok.Start, tok.Length, tok.Kind)
			switch tok.Kind {
			case token.IDENT, token.NUMBER, token.STRING:
				fmt.Fprintf(stdio.Stdout, " %s", tok.Lexeme(src))
			}
			fmt.Fprintln(stdio.Stdout)
			if tok.Kind == token.EOF {
				break
			}
		}
	}
	return firstErr
}
