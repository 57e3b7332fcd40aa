package handler

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/dapsql/dapsql/constraint"
	"github.com/dapsql/dapsql/dap"
	"github.com/dapsql/dapsql/dataset"
	"github.com/dapsql/dapsql/internal/logging"
	"github.com/dapsql/dapsql/sqlgen"
)

// Dataset is the response tree for one request: global attributes and a
// single sequence of variables.
type Dataset struct {
	Name       string
	Attributes dap.Attributes
	Sequence   *Sequence
}

// Sequence is a lazy view over the backing table. The builder methods
// return modified clones; traversing with Rows compiles and runs exactly
// one SELECT, so a sequence can be shaped freely and traversed repeatedly.
type Sequence struct {
	name    string
	attrs   dap.Attributes
	cfg     *dataset.Config
	db      *sql.DB
	dialect sqlgen.Dialect

	columns   []*Variable
	selection []string
	slice     dap.Slice
}

// Name returns the sequence name.
func (s *Sequence) Name() string {
	return s.name
}

// Attributes returns the sequence-level attributes.
func (s *Sequence) Attributes() dap.Attributes {
	return s.attrs
}

// Columns returns the projected variables in order.
func (s *Sequence) Columns() []*Variable {
	out := make([]*Variable, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column looks up a projected variable by name.
func (s *Sequence) Column(name string) (*Variable, bool) {
	for _, v := range s.columns {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

// Selection returns the accumulated filter expressions.
func (s *Sequence) Selection() []string {
	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out
}

// Clone deep-copies the request state: children, selection, and slice.
// Config, engine, and dialect are shared.
func (s *Sequence) Clone() *Sequence {
	clone := &Sequence{
		name:      s.name,
		attrs:     s.attrs.Clone(),
		cfg:       s.cfg,
		db:        s.db,
		dialect:   s.dialect,
		selection: append([]string(nil), s.selection...),
		slice:     s.slice,
	}
	clone.columns = make([]*Variable, len(s.columns))
	for i, v := range s.columns {
		clone.columns[i] = &Variable{name: v.name, typ: v.typ, attrs: v.attrs.Clone(), seq: clone}
	}
	return clone
}

// Project returns a clone keeping only the named children, in the order
// given. Names must be among the current children.
func (s *Sequence) Project(names ...string) (*Sequence, error) {
	clone := s.Clone()
	picked := make([]*Variable, 0, len(names))
	for _, name := range names {
		v, ok := clone.Column(name)
		if !ok {
			return nil, &dap.ConstraintExpressionError{
				Expression: name,
				Reason:     fmt.Sprintf("unknown variable %q", name),
			}
		}
		picked = append(picked, v)
	}
	clone.columns = picked
	return clone, nil
}

// Filter returns a clone with the expressions appended to the selection.
// Expressions are validated against the full variable mapping up front.
func (s *Sequence) Filter(exprs ...string) (*Sequence, error) {
	if _, err := s.compiler().Compile(exprs); err != nil {
		return nil, err
	}
	clone := s.Clone()
	clone.selection = append(clone.selection, exprs...)
	return clone, nil
}

// Slice returns a clone windowed to sl.
func (s *Sequence) Slice(sl dap.Slice) *Sequence {
	clone := s.Clone()
	clone.slice = sl.Normalize()
	return clone
}

func (s *Sequence) compiler() *constraint.Compiler {
	return &constraint.Compiler{Mapping: s.cfg.Mapping(), Operators: s.dialect.Operators}
}

// Query compiles the selection and renders the SELECT this sequence would
// run, without executing it.
func (s *Sequence) Query() (string, []interface{}, error) {
	clauses, err := s.compiler().Compile(s.selection)
	if err != nil {
		return "", nil, err
	}
	cols := make([]string, len(s.columns))
	for i, v := range s.columns {
		declared, ok := s.cfg.Variable(v.name)
		if !ok {
			return "", nil, &dap.ConstraintExpressionError{
				Expression: v.name,
				Reason:     fmt.Sprintf("unknown variable %q", v.name),
			}
		}
		cols[i] = declared.Col
	}
	return sqlgen.Build(s.dialect, sqlgen.Query{
		Table:   s.cfg.Database.Table,
		Columns: cols,
		Where:   clauses,
		Order:   s.cfg.Database.Order,
		Slice:   s.slice,
	})
}

// Rows traverses the sequence. Each traversal runs a fresh query, so the
// returned iterator is restartable. Rows stream in query order; a stride
// greater than one keeps every step-th row of the window, counted from its
// first row. Breaking out releases the cursor.
func (s *Sequence) Rows(ctx context.Context) iter.Seq2[dap.Row, error] {
	return func(yield func(dap.Row, error) bool) {
		sqlText, args, err := s.Query()
		if err != nil {
			yield(nil, err)
			return
		}
		logging.Ctx(ctx).Debug().Str("sql", sqlText).Int("args", len(args)).Msg("traversing sequence")

		rows, err := s.db.QueryContext(ctx, sqlText, args...)
		if err != nil {
			yield(nil, &dap.QueryExecutionError{Query: sqlText, Err: err})
			return
		}
		defer rows.Close()

		step := s.slice.Normalize().Step
		width := len(s.columns)
		var idx int64
		first := true
		for rows.Next() {
			keep := idx%step == 0
			idx++
			if !keep {
				continue
			}

			values := make([]interface{}, width)
			ptrs := make([]interface{}, width)
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				yield(nil, &dap.QueryExecutionError{Query: sqlText, Err: err})
				return
			}
			for i := range values {
				values[i] = dap.NormalizeValue(values[i])
			}
			if first {
				s.refineTypes(values)
				first = false
			}
			if !yield(dap.Row(values), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, &dap.QueryExecutionError{Query: sqlText, Err: err})
		}
	}
}

// refineTypes fills in types the open-time probe could not determine
// because the table was empty then.
func (s *Sequence) refineTypes(values []interface{}) {
	for i, v := range s.columns {
		if v.typ == dap.Unknown {
			v.typ = dap.TypeOf(values[i])
		}
	}
}

// Variable is one projected column of a sequence.
type Variable struct {
	name  string
	typ   dap.Type
	attrs dap.Attributes
	seq   *Sequence
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.name
}

// Type returns the probed protocol type.
func (v *Variable) Type() dap.Type {
	return v.typ
}

// Attributes returns the variable attributes from the config.
func (v *Variable) Attributes() dap.Attributes {
	return v.attrs
}

// Values streams just this variable, inheriting the parent sequence's
// selection and slice.
func (v *Variable) Values(ctx context.Context) iter.Seq2[interface{}, error] {
	return func(yield func(interface{}, error) bool) {
		sub, err := v.seq.Project(v.name)
		if err != nil {
			yield(nil, err)
			return
		}
		for row, err := range sub.Rows(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row[0], nil) {
				return
			}
		}
	}
}
