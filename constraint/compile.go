package constraint

import (
	"fmt"
	"strings"

	"github.com/dapsql/dapsql/dap"
)

// OperatorSet maps protocol operators to the SQL operator a dialect uses.
type OperatorSet map[string]string

// DefaultOperators returns the dialect-neutral operator set. Only the
// regex-match operator needs translation.
func DefaultOperators() OperatorSet {
	return OperatorSet{
		"<":  "<",
		"<=": "<=",
		">":  ">",
		">=": ">=",
		"=":  "=",
		"!=": "!=",
		"=~": "REGEXP",
	}
}

// Clause is one compiled WHERE condition. SQL uses ? placeholders; Args
// holds the bound values in order. Column-to-column comparisons have no
// arguments.
type Clause struct {
	SQL  string
	Args []interface{}
}

// Compiler turns selection expressions into clauses. Mapping is the
// trusted variable-to-column map from the dataset config; it is the only
// source of identifiers that reach the SQL text.
type Compiler struct {
	Mapping   map[string]string
	Operators OperatorSet
}

// NewCompiler returns a compiler over mapping with the default operators.
func NewCompiler(mapping map[string]string) *Compiler {
	return &Compiler{Mapping: mapping, Operators: DefaultOperators()}
}

// Compile compiles each selection expression into one clause. Every
// literal gets its own placeholder; clauses are returned in selection
// order.
func (c *Compiler) Compile(selection []string) ([]Clause, error) {
	clauses := make([]Clause, 0, len(selection))
	for _, expr := range selection {
		clause, err := c.compile(expr)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func (c *Compiler) compile(expr string) (Clause, error) {
	parsed, err := Parse(expr)
	if err != nil {
		return Clause{}, err
	}

	if parsed.Left.Ident == nil {
		return Clause{}, &dap.ConstraintExpressionError{
			Expression: expr,
			Reason:     "left side must be a variable",
		}
	}
	col, ok := c.Mapping[shortName(*parsed.Left.Ident)]
	if !ok {
		return Clause{}, &dap.ConstraintExpressionError{
			Expression: expr,
			Reason:     fmt.Sprintf("unknown variable %q", *parsed.Left.Ident),
		}
	}

	op := parsed.Op
	if translated, ok := c.Operators[op]; ok {
		op = translated
	}

	if parsed.Right.Ident != nil {
		name := shortName(*parsed.Right.Ident)
		if rcol, ok := c.Mapping[name]; ok {
			return Clause{SQL: fmt.Sprintf("(%s %s %s)", col, op, rcol)}, nil
		}
		if b, ok := parseBool(name); ok {
			return Clause{SQL: fmt.Sprintf("(%s %s ?)", col, op), Args: []interface{}{b}}, nil
		}
		return Clause{}, &dap.ConstraintExpressionError{
			Expression: expr,
			Reason:     fmt.Sprintf("%q is neither a variable nor a literal", *parsed.Right.Ident),
		}
	}

	value, err := parsed.Right.literal(expr)
	if err != nil {
		return Clause{}, err
	}
	return Clause{SQL: fmt.Sprintf("(%s %s ?)", col, op), Args: []interface{}{value}}, nil
}

func (o *Operand) literal(expr string) (interface{}, error) {
	switch {
	case o.String != nil:
		return unquote(*o.String), nil
	case o.Float != nil:
		return *o.Float, nil
	case o.Int != nil:
		return *o.Int, nil
	}
	return nil, &dap.ConstraintExpressionError{Expression: expr, Reason: "operand is not a literal"}
}

// shortName strips any qualifier, keeping the text after the last dot.
func shortName(ident string) string {
	if i := strings.LastIndex(ident, "."); i >= 0 {
		return ident[i+1:]
	}
	return ident
}

func parseBool(name string) (bool, bool) {
	switch name {
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	}
	return false, false
}

// unquote strips the surrounding quotes and resolves backslash escapes.
// Both single and double quoted strings are accepted, so strconv.Unquote
// does not apply.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
