// Package handler serves a config-declared database table as a sequence
// dataset. Opening a handler loads the config, resolves its engine, and
// probes column types; parsing a request produces a lazy dataset tree
// whose traversal streams rows from a single SELECT.
package handler

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dapsql/dapsql/dap"
	"github.com/dapsql/dapsql/dataset"
	"github.com/dapsql/dapsql/engine"
	"github.com/dapsql/dapsql/internal/logging"
	"github.com/dapsql/dapsql/sqlgen"
)

// Handler is an opened dataset: config, pooled engine, dialect, and the
// probed column types. Handlers are safe to share; every request gets its
// own tree.
type Handler struct {
	path    string
	cfg     *dataset.Config
	db      *sql.DB
	dialect sqlgen.Dialect
	types   map[string]dap.Type
}

// Open opens the dataset config at path using the default engine registry.
func Open(ctx context.Context, path string) (*Handler, error) {
	return OpenWith(ctx, path, engine.Default)
}

// OpenWith opens the dataset config at path against a specific registry.
func OpenWith(ctx context.Context, path string, registry *engine.Registry) (*Handler, error) {
	cfg, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}

	dsn, err := cfg.Database.ResolveDSN()
	if err != nil {
		return nil, &dap.OpenError{Path: path, Err: err}
	}
	conn, err := engine.ParseDSN(dsn)
	if err != nil {
		return nil, &dap.OpenError{Path: path, Err: err}
	}
	dialect, err := sqlgen.ForDriver(conn.Driver)
	if err != nil {
		return nil, &dap.OpenError{Path: path, Err: err}
	}
	db, err := registry.Get(dsn)
	if err != nil {
		return nil, &dap.OpenError{Path: path, Err: err}
	}

	if err := cfg.ResolveQueries(ctx, db); err != nil {
		return nil, &dap.OpenError{Path: path, Err: err}
	}

	h := &Handler{path: path, cfg: cfg, db: db, dialect: dialect}
	if err := h.probe(ctx); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("path", path).
		Str("dialect", dialect.Name).
		Int("variables", len(h.types)).
		Msg("opened dataset")
	return h, nil
}

// probe runs a one-row SELECT over every declared column and records the
// protocol type of each value. An empty table leaves every type Unknown;
// the dataset still serves its metadata.
func (h *Handler) probe(ctx context.Context) error {
	table := h.cfg.Database.Table
	names := h.cfg.VariableNames()
	h.types = make(map[string]dap.Type, len(names))
	if len(names) == 0 {
		return nil
	}

	cols := make([]string, len(names))
	for i, name := range names {
		v, _ := h.cfg.Variable(name)
		cols[i] = v.Col
	}
	sqlText, args, err := sqlgen.Build(h.dialect, sqlgen.Query{
		Table:   table,
		Columns: cols,
		Slice:   dap.Slice{Start: 0, Stop: 1, Step: 1},
	})
	if err != nil {
		return &dap.SchemaError{Table: table, Err: err}
	}

	rows, err := h.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return &dap.SchemaError{Table: table, Err: err}
	}
	defer rows.Close()

	for _, name := range names {
		h.types[name] = dap.Unknown
	}
	if rows.Next() {
		values := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return &dap.SchemaError{Table: table, Err: err}
		}
		for i, name := range names {
			h.types[name] = dap.TypeOf(dap.NormalizeValue(values[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return &dap.SchemaError{Table: table, Err: err}
	}
	return nil
}

// Config returns the loaded dataset config.
func (h *Handler) Config() *dataset.Config {
	return h.cfg
}

// Dialect returns the SQL dialect in use.
func (h *Handler) Dialect() sqlgen.Dialect {
	return h.dialect
}

// LastModified reports the dataset's declared modification time, if any.
func (h *Handler) LastModified() (time.Time, bool) {
	return h.cfg.LastModified()
}

// Dataset returns the unconstrained dataset tree: every variable, full
// range.
func (h *Handler) Dataset() (*Dataset, error) {
	return h.Parse(nil, nil)
}

// Parse builds the dataset tree for one request. The projection selects
// and orders the sequence children and attaches the window slice; the
// selection expressions are validated here so malformed requests fail
// before any SQL runs.
func (h *Handler) Parse(projection dap.Projection, selection []string) (*Dataset, error) {
	dsAttrs := h.cfg.Dataset.Clone()
	if dsAttrs == nil {
		dsAttrs = dap.Attributes{}
	}
	name := "dataset"
	if h.path != "" {
		name = filepath.Base(h.path)
	}
	if declared, ok := dsAttrs["name"].(string); ok && declared != "" {
		name = declared
		delete(dsAttrs, "name")
	}

	seqAttrs := h.cfg.Sequence.Clone()
	if seqAttrs == nil {
		seqAttrs = dap.Attributes{}
	}
	seqName := "sequence"
	if declared, ok := seqAttrs["name"].(string); ok && declared != "" {
		seqName = declared
		delete(seqAttrs, "name")
	}

	seq := &Sequence{
		name:    seqName,
		attrs:   seqAttrs,
		cfg:     h.cfg,
		db:      h.db,
		dialect: h.dialect,
		slice:   dap.DefaultSlice(),
	}

	if len(selection) > 0 {
		if _, err := seq.compiler().Compile(selection); err != nil {
			return nil, err
		}
		seq.selection = append([]string(nil), selection...)
	}

	names := h.cfg.VariableNames()
	if len(projection) > 0 {
		projected, slice, err := h.resolveProjection(projection, seqName)
		if err != nil {
			return nil, err
		}
		names = projected
		seq.slice = slice
	}

	for _, n := range names {
		v, _ := h.cfg.Variable(n)
		attrs := v.Attributes.Clone()
		if attrs == nil {
			attrs = dap.Attributes{}
		}
		seq.columns = append(seq.columns, &Variable{name: n, typ: h.types[n], attrs: attrs, seq: seq})
	}

	return &Dataset{Name: name, Attributes: dsAttrs, Sequence: seq}, nil
}

// resolveProjection normalizes shorthand paths, checks names, and extracts
// the common window slice. When every path names a leaf, the projected
// children are exactly those leaves in request order; a bare sequence path
// keeps all children.
func (h *Handler) resolveProjection(projection dap.Projection, seqName string) ([]string, dap.Slice, error) {
	norm := make(dap.Projection, 0, len(projection))
	for _, p := range projection {
		if len(p) == 1 && p[0].Name != seqName {
			p = append(dap.Path{dap.NewSegment(seqName)}, p...)
		}
		norm = append(norm, p)
	}

	slice := norm[0][0].Slice.Normalize()
	leaves := make([]string, 0, len(norm))
	allLeaves := true
	for _, p := range norm {
		if p[0].Name != seqName {
			return nil, dap.Slice{}, &dap.ConstraintExpressionError{
				Expression: p.String(),
				Reason:     fmt.Sprintf("unknown sequence %q", p[0].Name),
			}
		}
		if len(p) > 2 {
			return nil, dap.Slice{}, &dap.ConstraintExpressionError{
				Expression: p.String(),
				Reason:     "sequence variables have no children",
			}
		}
		if p[0].Slice.Normalize() != slice {
			return nil, dap.Slice{}, &dap.ConstraintExpressionError{
				Expression: p.String(),
				Reason:     "projection slices are not unique",
			}
		}
		if len(p) == 2 {
			leaf := p[1].Name
			if _, ok := h.cfg.Variable(leaf); !ok {
				return nil, dap.Slice{}, &dap.ConstraintExpressionError{
					Expression: p.String(),
					Reason:     fmt.Sprintf("unknown variable %q", leaf),
				}
			}
			leaves = append(leaves, leaf)
		} else {
			allLeaves = false
		}
	}

	if !allLeaves {
		return h.cfg.VariableNames(), slice, nil
	}
	return leaves, slice, nil
}
