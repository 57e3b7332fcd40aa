// Package sqlgen renders the single SELECT statement behind a sequence
// traversal. Dialects differ only in placeholder style, regex operator,
// and how an unbounded window with an offset is written.
package sqlgen

import (
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"github.com/dapsql/dapsql/constraint"
	"github.com/dapsql/dapsql/dap"
)

// Dialect describes one driver's SQL surface.
type Dialect struct {
	Name        string
	Driver      string
	Placeholder sq.PlaceholderFormat
	Operators   constraint.OperatorSet

	// NoLimit is the LIMIT literal meaning "no bound", needed when an
	// OFFSET must be rendered without one. Empty means the dialect allows
	// OFFSET on its own.
	NoLimit string
}

// Supported dialects.
var (
	Postgres = Dialect{
		Name:        "postgres",
		Driver:      "postgres",
		Placeholder: sq.Dollar,
		Operators:   operators("~"),
	}
	MySQL = Dialect{
		Name:        "mysql",
		Driver:      "mysql",
		Placeholder: sq.Question,
		Operators:   operators("REGEXP"),
		NoLimit:     "18446744073709551615",
	}
	SQLite = Dialect{
		Name:        "sqlite",
		Driver:      "sqlite3",
		Placeholder: sq.Question,
		Operators:   operators("REGEXP"),
		NoLimit:     "-1",
	}
)

func operators(regexp string) constraint.OperatorSet {
	ops := constraint.DefaultOperators()
	ops["=~"] = regexp
	return ops
}

// ForDriver returns the dialect for a registered driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("no dialect for driver %q", driver)
}

// Query describes one SELECT. Table, Columns, and Order come from the
// trusted dataset config; Where carries the compiled client selection.
type Query struct {
	Table   string
	Columns []string
	Where   []constraint.Clause
	Order   string
	Slice   dap.Slice
}

// Build renders the statement and its arguments. The slice maps onto
// LIMIT/OFFSET; the stride is applied while streaming, not here.
func Build(d Dialect, q Query) (string, []interface{}, error) {
	if q.Table == "" {
		return "", nil, fmt.Errorf("no table to select from")
	}
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("no columns to select")
	}

	b := sq.StatementBuilder.
		PlaceholderFormat(d.Placeholder).
		Select(q.Columns...).
		From(q.Table)

	for _, clause := range q.Where {
		b = b.Where(sq.Expr(clause.SQL, clause.Args...))
	}
	if q.Order != "" {
		b = b.OrderBy(q.Order)
	}

	offset, limit, bounded := q.Slice.Window()
	switch {
	case bounded:
		b = b.Limit(uint64(limit))
		if offset > 0 {
			b = b.Offset(uint64(offset))
		}
	case offset > 0:
		if d.NoLimit == "" {
			b = b.Offset(uint64(offset))
		} else {
			b = b.Suffix("LIMIT " + d.NoLimit + " OFFSET " + strconv.FormatInt(offset, 10))
		}
	}

	return b.ToSql()
}
