package compiler

import "github.com/mna/gart/lang/token"

// precedence levels, low to high. parsePrecedence(p) binds every operator
// with precedence >= p.
type precedence uint8

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // ()
	precPrimary
)

type parseFn func(*Compiler, bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules maps each token kind to its Pratt parse rule; kinds without an entry
// play no role in expressions.
var rules [token.KindCount]parseRule

// populated in init to avoid an initialization cycle: the rule functions
// (e.g. unary) call parsePrecedence, which calls ruleOf, which reads rules.
func init() {
	rules = [token.KindCount]parseRule{
		token.LPAREN: {prefix: (*Compiler).grouping, infix: (*Compiler).callExpr, prec: precCall},
		token.MINUS:  {prefix: (*Compiler).unary, infix: (*Compiler).binary, prec: precTerm},
		token.PLUS:   {infix: (*Compiler).binary, prec: precTerm},
		token.SLASH:  {infix: (*Compiler).binary, prec: precFactor},
		token.STAR:   {infix: (*Compiler).binary, prec: precFactor},
		token.BANG:   {prefix: (*Compiler).unary},
		token.BANGEQ: {infix: (*Compiler).binary, prec: precEquality},
		token.EQEQ:   {infix: (*Compiler).binary, prec: precEquality},
		token.GT:     {infix: (*Compiler).binary, prec: precComparison},
		token.GE:     {infix: (*Compiler).binary, prec: precComparison},
		token.LT:     {infix: (*Compiler).binary, prec: precComparison},
		token.LE:     {infix: (*Compiler).binary, prec: precComparison},
		token.IDENT:  {prefix: (*Compiler).variable},
		token.STRING: {prefix: (*Compiler).str},
		token.NUMBER: {prefix: (*Compiler).number},
		token.AND:    {infix: (*Compiler).and, prec: precAnd},
		token.OR:     {infix: (*Compiler).or, prec: precOr},
		token.FALSE:  {prefix: (*Compiler).literal},
		token.TRUE:   {prefix: (*Compiler).literal},
		token.NULL:   {prefix: (*Compiler).literal},
	}
}

func ruleOf(k token.Kind) *parseRule { return &rules[k] }
