package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dapsql/dapsql/constraint"
	"github.com/dapsql/dapsql/dap"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    Query
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "plain select all columns",
			dialect: SQLite,
			query: Query{
				Table:   "test",
				Columns: []string{"idx", "temperature", "site"},
				Slice:   dap.DefaultSlice(),
			},
			wantSQL: "SELECT idx, temperature, site FROM test",
		},
		{
			name:    "order and bounded window",
			dialect: SQLite,
			query: Query{
				Table:   "test",
				Columns: []string{"idx"},
				Order:   "idx",
				Slice:   dap.Slice{Start: 2, Stop: 10, Step: 1},
			},
			wantSQL: "SELECT idx FROM test ORDER BY idx LIMIT 8 OFFSET 2",
		},
		{
			name:    "bounded window at origin has no offset",
			dialect: SQLite,
			query: Query{
				Table:   "test",
				Columns: []string{"idx"},
				Slice:   dap.Slice{Start: 0, Stop: 4, Step: 1},
			},
			wantSQL: "SELECT idx FROM test LIMIT 4",
		},
		{
			name:    "empty window renders limit zero",
			dialect: SQLite,
			query: Query{
				Table:   "test",
				Columns: []string{"idx"},
				Slice:   dap.Slice{Start: 3, Stop: 3, Step: 1},
			},
			wantSQL: "SELECT idx FROM test LIMIT 0 OFFSET 3",
		},
		{
			name:    "postgres placeholders and clause order",
			dialect: Postgres,
			query: Query{
				Table:   "station_observations",
				Columns: []string{"obs_time", "temp_c"},
				Where: []constraint.Clause{
					{SQL: "(obs_time >= ?)", Args: []interface{}{"1970-01-01 00:00:00"}},
					{SQL: "(obs_time <= ?)", Args: []interface{}{"2000-12-31 00:00:00"}},
				},
				Slice: dap.DefaultSlice(),
			},
			wantSQL:  "SELECT obs_time, temp_c FROM station_observations WHERE (obs_time >= $1) AND (obs_time <= $2)",
			wantArgs: []interface{}{"1970-01-01 00:00:00", "2000-12-31 00:00:00"},
		},
		{
			name:    "postgres unbounded offset stands alone",
			dialect: Postgres,
			query: Query{
				Table:   "test",
				Columns: []string{"idx"},
				Slice:   dap.Slice{Start: 3, Stop: dap.NoBound, Step: 1},
			},
			wantSQL: "SELECT idx FROM test OFFSET 3",
		},
		{
			name:    "mysql unbounded offset needs limit literal",
			dialect: MySQL,
			query: Query{
				Table:   "test",
				Columns: []string{"idx"},
				Slice:   dap.Slice{Start: 3, Stop: dap.NoBound, Step: 1},
			},
			wantSQL: "SELECT idx FROM test LIMIT 18446744073709551615 OFFSET 3",
		},
		{
			name:    "sqlite unbounded offset uses negative limit",
			dialect: SQLite,
			query: Query{
				Table:   "test",
				Columns: []string{"idx"},
				Order:   "idx",
				Slice:   dap.Slice{Start: 3, Stop: dap.NoBound, Step: 1},
			},
			wantSQL: "SELECT idx FROM test ORDER BY idx LIMIT -1 OFFSET 3",
		},
		{
			name:    "where with bound arg and window",
			dialect: SQLite,
			query: Query{
				Table:   "test",
				Columns: []string{"idx", "site"},
				Where: []constraint.Clause{
					{SQL: "(site REGEXP ?)", Args: []interface{}{"^Diamond.*"}},
				},
				Order: "idx",
				Slice: dap.Slice{Start: 0, Stop: 2, Step: 1},
			},
			wantSQL:  "SELECT idx, site FROM test WHERE (site REGEXP ?) ORDER BY idx LIMIT 2",
			wantArgs: []interface{}{"^Diamond.*"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := Build(tt.dialect, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBuildRejectsEmptyTargets(t *testing.T) {
	_, _, err := Build(SQLite, Query{Columns: []string{"a"}})
	assert.Error(t, err)

	_, _, err = Build(SQLite, Query{Table: "test"})
	assert.Error(t, err)
}

func TestForDriver(t *testing.T) {
	d, err := ForDriver("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name)
	assert.Equal(t, "REGEXP", d.Operators["=~"])

	d, err = ForDriver("postgres")
	require.NoError(t, err)
	assert.Equal(t, "~", d.Operators["=~"])

	_, err = ForDriver("oracle")
	assert.Error(t, err)
}

func TestDialectOperatorSetsAreIndependent(t *testing.T) {
	assert.Equal(t, "REGEXP", SQLite.Operators["=~"])
	assert.Equal(t, "~", Postgres.Operators["=~"])
	assert.Equal(t, "<=", MySQL.Operators["<="])
}
