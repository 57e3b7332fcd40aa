package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dapsql/dapsql/dap"
)

func TestParseEmpty(t *testing.T) {
	projection, selection, err := Parse("")
	require.NoError(t, err)
	assert.Nil(t, projection)
	assert.Nil(t, selection)
}

func TestParseProjectionOnly(t *testing.T) {
	projection, selection, err := Parse("a_sequence.temperature,a_sequence.site")
	require.NoError(t, err)
	assert.Nil(t, selection)
	require.Len(t, projection, 2)

	assert.Equal(t, "a_sequence.temperature", projection[0].String())
	assert.Equal(t, "a_sequence.site", projection[1].String())
	assert.Equal(t, dap.DefaultSlice(), projection[0][0].Slice)
}

func TestParseHyperslabs(t *testing.T) {
	tests := []struct {
		name string
		ce   string
		want dap.Slice
	}{
		{"single index", "a_sequence[4]", dap.Slice{Start: 4, Stop: 5, Step: 1}},
		{"range is inclusive on the wire", "a_sequence[1:3]", dap.Slice{Start: 1, Stop: 4, Step: 1}},
		{"strided range", "a_sequence[0:2:9]", dap.Slice{Start: 0, Stop: 10, Step: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projection, _, err := Parse(tt.ce)
			require.NoError(t, err)
			require.Len(t, projection, 1)
			assert.Equal(t, tt.want, projection[0][0].Slice)
		})
	}
}

func TestParseSlicedSequenceWithLeaves(t *testing.T) {
	projection, selection, err := Parse("a_sequence[0:2:9].idx,a_sequence[0:2:9].site&idx>10")
	require.NoError(t, err)
	assert.Equal(t, []string{"idx>10"}, selection)
	require.Len(t, projection, 2)

	want := dap.Slice{Start: 0, Stop: 10, Step: 2}
	assert.Equal(t, want, projection[0][0].Slice)
	assert.Equal(t, want, projection[1][0].Slice)
	assert.Equal(t, "idx", projection[0][1].Name)
	assert.Equal(t, dap.DefaultSlice(), projection[0][1].Slice)
}

func TestParseSelectionOnly(t *testing.T) {
	projection, selection, err := Parse("&temperature>10&site!='Platinum_St'")
	require.NoError(t, err)
	assert.Nil(t, projection)
	assert.Equal(t, []string{"temperature>10", "site!='Platinum_St'"}, selection)
}

func TestParseDropsEmptySelectionFields(t *testing.T) {
	_, selection, err := Parse("site&&temperature>10&")
	require.NoError(t, err)
	assert.Equal(t, []string{"temperature>10"}, selection)
}

func TestParseSelectionKeptVerbatim(t *testing.T) {
	_, selection, err := Parse("site&obs_time>='1970-01-01 00:00:00'")
	require.NoError(t, err)
	assert.Equal(t, []string{"obs_time>='1970-01-01 00:00:00'"}, selection)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		ce   string
	}{
		{"too many indices", "site[0:1:2:3]"},
		{"empty hyperslab", "site[]"},
		{"unterminated hyperslab", "site[1"},
		{"leading dot", ".site"},
		{"double dot", "a_sequence..site"},
		{"negative index", "site[-1]"},
		{"zero stride", "site[0:0:4]"},
		{"trailing comma", "site,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.ce)
			require.Error(t, err)
			assert.True(t, dap.IsConstraintExpressionError(err))
		})
	}
}
