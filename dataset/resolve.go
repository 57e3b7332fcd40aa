package dataset

import (
	"context"
	"database/sql"

	"github.com/dapsql/dapsql/dap"
	"github.com/dapsql/dapsql/internal/logging"
)

const queryTag = "!Query"

// Query marks an attribute whose value is computed by running SQL against
// the dataset's own engine, declared in yaml as
//
//	last_modified: !Query "SELECT MAX(updated_at) FROM test"
//
// Markers are replaced by ResolveQueries before the config is served.
type Query struct {
	SQL string
}

// ResolveQueries executes every embedded query marker and substitutes its
// first result row: a bare value for single-column queries, a value list
// otherwise. A query with no rows resolves to nil.
func (c *Config) ResolveQueries(ctx context.Context, db *sql.DB) error {
	if err := resolveAttrs(ctx, db, c.Dataset); err != nil {
		return err
	}
	if err := resolveAttrs(ctx, db, c.Sequence); err != nil {
		return err
	}
	for _, v := range c.vars {
		if err := resolveAttrs(ctx, db, v.Attributes); err != nil {
			return err
		}
	}
	return nil
}

func resolveAttrs(ctx context.Context, db *sql.DB, attrs dap.Attributes) error {
	for k, v := range attrs {
		resolved, err := resolveValue(ctx, db, v)
		if err != nil {
			return err
		}
		attrs[k] = resolved
	}
	return nil
}

func resolveValue(ctx context.Context, db *sql.DB, v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case Query:
		return runQuery(ctx, db, t)
	case dap.Attributes:
		if err := resolveAttrs(ctx, db, t); err != nil {
			return nil, err
		}
		return t, nil
	case []interface{}:
		for i, elem := range t {
			resolved, err := resolveValue(ctx, db, elem)
			if err != nil {
				return nil, err
			}
			t[i] = resolved
		}
		return t, nil
	default:
		return v, nil
	}
}

func runQuery(ctx context.Context, db *sql.DB, q Query) (interface{}, error) {
	logging.Debug().Str("sql", q.SQL).Msg("resolving embedded query")

	rows, err := db.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, &dap.QueryExecutionError{Query: q.SQL, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &dap.QueryExecutionError{Query: q.SQL, Err: err}
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &dap.QueryExecutionError{Query: q.SQL, Err: err}
		}
		return nil, nil
	}

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, &dap.QueryExecutionError{Query: q.SQL, Err: err}
	}
	for i := range values {
		values[i] = dap.NormalizeValue(values[i])
	}

	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}
