package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeCell covers widening and rejection of non-scalar values.
func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    interface{}
		wantErr bool
	}{
		{name: "nil passes through", input: nil, want: nil},
		{name: "string passes through", input: "hello", want: "hello"},
		{name: "bool passes through", input: true, want: true},
		{name: "int widens", input: 7, want: int64(7)},
		{name: "int32 widens", input: int32(-4), want: int64(-4)},
		{name: "uint widens", input: uint(12), want: int64(12)},
		{name: "float32 widens", input: float32(2.5), want: float64(2.5)},
		{name: "float64 passes through", input: 3.14, want: 3.14},
		{name: "slice rejected", input: []int{1, 2}, wantErr: true},
		{name: "map rejected", input: map[string]int{"a": 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCell(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrCellType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestCellString covers rendering of every cell type.
func TestCellString(t *testing.T) {
	assert.Equal(t, "NA", CellString(nil))
	assert.Equal(t, "hi", CellString("hi"))
	assert.Equal(t, "42", CellString(int64(42)))
	assert.Equal(t, "2.5", CellString(2.5))
	assert.Equal(t, "true", CellString(true))
}

// TestParseCell covers the CSV field to cell mapping.
func TestParseCell(t *testing.T) {
	assert.Nil(t, ParseCell("NA"))
	assert.Equal(t, int64(3), ParseCell("3"))
	assert.Equal(t, 2.5, ParseCell("2.5"))
	assert.Equal(t, true, ParseCell("true"))
	assert.Equal(t, false, ParseCell("false"))
	assert.Equal(t, "banana", ParseCell("banana"))
	assert.Equal(t, "", ParseCell(""))
}

// TestParseCell_RoundTrip verifies CellString and ParseCell invert each other.
func TestParseCell_RoundTrip(t *testing.T) {
	values := []interface{}{nil, "word", int64(-12), 0.25, true, false}
	for _, v := range values {
		assert.Equal(t, v, ParseCell(CellString(v)))
	}
}

// TestCellsEqual covers missing cells and cross-type numeric comparison.
func TestCellsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{name: "both missing", a: nil, b: nil, want: true},
		{name: "missing vs value", a: nil, b: int64(0), want: false},
		{name: "equal ints", a: int64(5), b: int64(5), want: true},
		{name: "int vs equal float", a: int64(2), b: float64(2), want: true},
		{name: "int vs different float", a: int64(2), b: float64(2.5), want: false},
		{name: "equal strings", a: "x", b: "x", want: true},
		{name: "string vs numeric string", a: "1", b: int64(1), want: false},
		{name: "bools", a: true, b: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellsEqual(tt.a, tt.b))
		})
	}
}
