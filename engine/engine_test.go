package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name   string
		dsn    string
		driver string
		source string
	}{
		{"sqlite relative", "sqlite:///test.db", "sqlite3", "test.db"},
		{"sqlite absolute", "sqlite:////var/data/test.db", "sqlite3", "/var/data/test.db"},
		{"sqlite memory", "sqlite://", "sqlite3", ":memory:"},
		{"sqlite memory explicit", "sqlite://:memory:", "sqlite3", ":memory:"},
		{"postgres url", "postgresql://user:pw@db.example.net/obs", "postgres", "postgresql://user:pw@db.example.net/obs"},
		{"postgres short scheme", "postgres://db.example.net/obs", "postgres", "postgres://db.example.net/obs"},
		{"mysql rewritten", "mysql://root:pw@localhost:3306/obs?parseTime=true", "mysql", "root:pw@tcp(localhost:3306)/obs?parseTime=true"},
		{"mysql default port", "mysql://root@db.example.net/obs", "mysql", "root@tcp(db.example.net:3306)/obs"},
		{"mysql escaped password", "mysql://u:p%40ss@h/obs", "mysql", "u:p@ss@tcp(h:3306)/obs"},
		{"mysql already driver form", "mysql://root:pw@tcp(localhost:3306)/obs", "mysql", "root:pw@tcp(localhost:3306)/obs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := ParseDSN(tt.dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, conn.Driver)
			assert.Equal(t, tt.source, conn.Source)
		})
	}
}

func TestParseDSNErrors(t *testing.T) {
	_, err := ParseDSN("test.db")
	assert.Error(t, err)

	_, err = ParseDSN("oracle://somewhere/xe")
	assert.Error(t, err)

	_, err = ParseDSN("mysql:///nohost")
	assert.Error(t, err)
}

func TestRegistryCachesPerDSN(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	a, err := r.Get("sqlite://:memory:")
	require.NoError(t, err)
	b, err := r.Get("sqlite://:memory:")
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := r.Get("sqlite:///other.db")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())

	_, err = r.Get("bogus://nope")
	assert.Error(t, err)
}

func TestRegistryMemoryEngineSurvivesAcrossQueries(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	ctx := context.Background()
	db, err := r.Get("sqlite://:memory:")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "CREATE TABLE t (n INTEGER)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO t (n) VALUES (1), (2)")
	require.NoError(t, err)

	again, err := r.Get("sqlite://:memory:")
	require.NoError(t, err)

	var count int
	require.NoError(t, again.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 2, count)
}
