package dap

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	assert.Equal(t, Int32, TypeOf(int64(7)))
	assert.Equal(t, Int32, TypeOf(42))
	assert.Equal(t, UInt32, TypeOf(uint16(3)))
	assert.Equal(t, Float64, TypeOf(15.2))
	assert.Equal(t, Float32, TypeOf(float32(1.5)))
	assert.Equal(t, String, TypeOf("Diamond_St"))
	assert.Equal(t, String, TypeOf([]byte("blob")))
	assert.Equal(t, String, TypeOf(time.Now()))
	assert.Equal(t, Byte, TypeOf(true))
	assert.Equal(t, Unknown, TypeOf(nil))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "Float64", Float64.String())
	assert.Equal(t, "Unknown", Type(99).String())
}

func TestSliceWindow(t *testing.T) {
	tests := []struct {
		name    string
		slice   Slice
		offset  int64
		limit   int64
		bounded bool
	}{
		{"default", DefaultSlice(), 0, 0, false},
		{"bounded", Slice{Start: 2, Stop: 10, Step: 1}, 2, 8, true},
		{"empty window", Slice{Start: 5, Stop: 5, Step: 1}, 5, 0, true},
		{"inverted clamps to zero", Slice{Start: 9, Stop: 4, Step: 1}, 9, 0, true},
		{"offset only", Slice{Start: 3, Stop: NoBound, Step: 1}, 3, 0, false},
		{"zero step normalized", Slice{Start: 0, Stop: 4}, 0, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit, bounded := tt.slice.Window()
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.limit, limit)
			assert.Equal(t, tt.bounded, bounded)
		})
	}
}

func TestSliceString(t *testing.T) {
	assert.Equal(t, "0::1", DefaultSlice().String())
	assert.Equal(t, "0:10:2", Slice{Start: 0, Stop: 10, Step: 2}.String())
}

func TestAttributesClone(t *testing.T) {
	orig := Attributes{
		"units": "degC",
		"range": []interface{}{int64(-40), int64(60)},
		"nested": Attributes{
			"history": "v2",
		},
	}
	clone := orig.Clone()

	clone["units"] = "K"
	clone["range"].([]interface{})[0] = int64(0)
	clone["nested"].(Attributes)["history"] = "v3"

	assert.Equal(t, "degC", orig["units"])
	assert.Equal(t, int64(-40), orig["range"].([]interface{})[0])
	assert.Equal(t, "v2", orig["nested"].(Attributes)["history"])
}

func TestPathString(t *testing.T) {
	p := NewPath("sequence", "temperature")
	assert.Equal(t, "sequence.temperature", p.String())
	require.Len(t, p, 2)
	assert.Equal(t, DefaultSlice(), p[0].Slice)
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("no such table: test")

	open := fmt.Errorf("loading: %w", &OpenError{Path: "ds.yaml", Err: errors.New("bad yaml")})
	assert.True(t, IsOpenError(open))
	assert.False(t, IsSchemaError(open))

	schema := &SchemaError{Table: "test", Err: cause}
	assert.True(t, IsSchemaError(schema))
	assert.ErrorIs(t, schema, cause)

	ce := &ConstraintExpressionError{Expression: "nope>1", Reason: "unknown variable \"nope\""}
	assert.True(t, IsConstraintExpressionError(ce))
	assert.Contains(t, ce.Error(), "nope>1")

	qe := &QueryExecutionError{Query: "SELECT idx FROM test", Err: cause}
	assert.True(t, IsQueryExecutionError(qe))
	assert.ErrorIs(t, qe, cause)
	assert.NotContains(t, qe.Error(), "SELECT")
}
