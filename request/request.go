// Package request parses the constraint-expression strings protocol hosts
// receive, e.g.
//
//	a_sequence[0:2:9].idx,a_sequence[0:2:9].site&idx>10&site!='Platinum_St'
//
// The part before the first & is the projection; the remaining fields are
// selection expressions handed to the constraint compiler verbatim.
// Hyperslab bounds are inclusive on the wire and converted to half-open
// slices.
package request

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/dapsql/dapsql/dap"
)

var ceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type ceProjection struct {
	Paths []*cePath `@@ ("," @@)*`
}

type cePath struct {
	Segments []*ceSegment `@@ ("." @@)*`
}

type ceSegment struct {
	Name    string  `@Ident`
	Indices []int64 `("[" @Int (":" @Int)* "]")?`
}

var ceParser = participle.MustBuild[ceProjection](
	participle.Lexer(ceLexer),
	participle.Elide("Whitespace"),
)

// Parse splits a constraint expression into a projection and the raw
// selection strings. An empty projection part selects everything.
func Parse(q string) (dap.Projection, []string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil, nil
	}

	fields := strings.Split(q, "&")
	var selection []string
	for _, f := range fields[1:] {
		if f != "" {
			selection = append(selection, f)
		}
	}

	if fields[0] == "" {
		return nil, selection, nil
	}
	projection, err := parseProjection(fields[0])
	if err != nil {
		return nil, nil, err
	}
	return projection, selection, nil
}

func parseProjection(text string) (dap.Projection, error) {
	parsed, err := ceParser.ParseString("", text)
	if err != nil {
		return nil, &dap.ConstraintExpressionError{Expression: text, Reason: err.Error()}
	}

	projection := make(dap.Projection, 0, len(parsed.Paths))
	for _, p := range parsed.Paths {
		path := make(dap.Path, 0, len(p.Segments))
		for _, seg := range p.Segments {
			sl, err := hyperslab(text, seg.Indices)
			if err != nil {
				return nil, err
			}
			path = append(path, dap.Segment{Name: seg.Name, Slice: sl})
		}
		projection = append(projection, path)
	}
	return projection, nil
}

// hyperslab converts wire-form indices to a slice: [i] is a single row,
// [first:last] a range, [first:stride:last] a strided range. The wire
// upper bound is inclusive.
func hyperslab(expr string, indices []int64) (dap.Slice, error) {
	switch len(indices) {
	case 0:
		return dap.DefaultSlice(), nil
	case 1:
		return dap.Slice{Start: indices[0], Stop: indices[0] + 1, Step: 1}, nil
	case 2:
		return dap.Slice{Start: indices[0], Stop: indices[1] + 1, Step: 1}, nil
	case 3:
		if indices[1] < 1 {
			return dap.Slice{}, &dap.ConstraintExpressionError{
				Expression: expr,
				Reason:     "hyperslab stride must be positive",
			}
		}
		return dap.Slice{Start: indices[0], Stop: indices[2] + 1, Step: indices[1]}, nil
	default:
		return dap.Slice{}, &dap.ConstraintExpressionError{
			Expression: expr,
			Reason:     "hyperslab has too many indices",
		}
	}
}
