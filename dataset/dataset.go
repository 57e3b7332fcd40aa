// Package dataset loads and validates the YAML files that declare a
// database-backed dataset: the connection target, the table, and the
// variables bound to its columns.
//
// A minimal config:
//
//	database:
//	  dsn: "sqlite:///test.db"
//	  table: test
//	  order: idx
//	idx: {col: idx}
//	temperature: {col: temperature, units: degC}
//	site: {col: site}
//
// Any top-level mapping with a col key declares a variable; its remaining
// keys become variable attributes. Declaration order is preserved and
// drives the default projection.
package dataset

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/dapsql/dapsql/dap"
	"github.com/dapsql/dapsql/internal/version"
)

// Fs is the filesystem configs are read from. Tests swap in a memory fs.
var Fs = afero.NewOsFs()

// Database is the connection block of a config.
type Database struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
	Order string `yaml:"order"`
}

// ResolveDSN returns the DSN, following env:VAR indirection so configs can
// be committed without credentials.
func (d Database) ResolveDSN() (string, error) {
	if name, ok := strings.CutPrefix(d.DSN, "env:"); ok {
		v := os.Getenv(name)
		if v == "" {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return v, nil
	}
	return d.DSN, nil
}

// Variable is one declared variable and its column binding. Attributes
// holds everything from the variable's mapping except col.
type Variable struct {
	Name       string
	Col        string
	Attributes dap.Attributes
}

// Config is a parsed dataset declaration.
type Config struct {
	Path     string
	Database Database
	Requires string
	Dataset  dap.Attributes
	Sequence dap.Attributes

	vars   []*Variable
	byName map[string]*Variable
}

// Load reads and parses the config at path. All failures are reported as
// open errors.
func Load(path string) (*Config, error) {
	data, err := afero.ReadFile(Fs, path)
	if err != nil {
		return nil, &dap.OpenError{Path: path, Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, &dap.OpenError{Path: path, Err: err}
	}
	cfg.Path = path
	return cfg, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.Table == "" {
		return fmt.Errorf("database.table is required")
	}

	if c.Requires != "" {
		constraint, err := goversion.NewConstraint(c.Requires)
		if err != nil {
			return fmt.Errorf("invalid requires constraint %q: %w", c.Requires, err)
		}
		current, err := goversion.NewVersion(version.Version)
		if err != nil {
			return fmt.Errorf("invalid handler version %q: %w", version.Version, err)
		}
		if !constraint.Check(current) {
			return fmt.Errorf("config requires handler version %s, running %s", c.Requires, version.Version)
		}
	}

	cols := make(map[string]string, len(c.vars))
	for _, v := range c.vars {
		if !identRe.MatchString(v.Name) {
			return fmt.Errorf("variable name %q is not a valid identifier", v.Name)
		}
		if prev, ok := cols[v.Col]; ok {
			return fmt.Errorf("variables %s and %s are bound to the same column %q", prev, v.Name, v.Col)
		}
		cols[v.Col] = v.Name
	}
	return nil
}

// Variables returns the declared variables in declaration order.
func (c *Config) Variables() []*Variable {
	out := make([]*Variable, len(c.vars))
	copy(out, c.vars)
	return out
}

// VariableNames returns the declared names in declaration order.
func (c *Config) VariableNames() []string {
	names := make([]string, len(c.vars))
	for i, v := range c.vars {
		names[i] = v.Name
	}
	return names
}

// Variable looks up a declared variable by name.
func (c *Config) Variable(name string) (*Variable, bool) {
	v, ok := c.byName[name]
	return v, ok
}

// Mapping returns the variable-to-column map. Only identifiers from this
// map are ever interpolated into SQL.
func (c *Config) Mapping() map[string]string {
	m := make(map[string]string, len(c.vars))
	for _, v := range c.vars {
		m[v.Name] = v.Col
	}
	return m
}

// LastModified reads the dataset-level last_modified attribute, used by
// protocol hosts for caching headers. Accepts a timestamp, an RFC 3339 or
// SQL-style string, or the first column of a resolved embedded query.
func (c *Config) LastModified() (time.Time, bool) {
	return lastModified(c.Dataset["last_modified"])
}

func lastModified(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
	case []interface{}:
		if len(t) > 0 {
			return lastModified(t[0])
		}
	}
	return time.Time{}, false
}
