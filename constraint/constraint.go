// Package constraint parses client selection expressions of the form
// "variable op value" and compiles them into parameterized SQL clauses.
// Values never reach the SQL text; they are carried as bound arguments.
package constraint

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/dapsql/dapsql/dap"
)

// exprLexer tokenizes one selection expression. Operator alternatives are
// ordered longest first so <= wins over <.
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Op", Pattern: `<=|>=|!=|=~|<|>|=`},
	{Name: "Float", Pattern: `[-+]?(?:\d+\.\d*|\.\d+)(?:[eE][-+]?\d+)?|[-+]?\d+[eE][-+]?\d+`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// Expression is one parsed selection: left op right.
type Expression struct {
	Pos   lexer.Position
	Left  Operand `@@`
	Op    string  `@Op`
	Right Operand `@@`
}

// Operand is either a (possibly dotted) identifier or a literal.
type Operand struct {
	Ident  *string  `  @Ident`
	String *string  `| @String`
	Float  *float64 `| @Float`
	Int    *int64   `| @Int`
}

var exprParser = participle.MustBuild[Expression](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a single selection expression. Anything that is not a bare
// comparison is rejected.
func Parse(expr string) (*Expression, error) {
	parsed, err := exprParser.ParseString("", expr)
	if err != nil {
		return nil, &dap.ConstraintExpressionError{Expression: expr, Reason: err.Error()}
	}
	return parsed, nil
}
