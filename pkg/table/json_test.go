package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromJSON_FlatObjects verifies ingestion of a plain record array.
func TestFromJSON_FlatObjects(t *testing.T) {
	data := []byte(`[
		{"sl": 1, "x": 1.5, "y": "a", "ok": true},
		{"sl": 2, "x": null, "y": "b", "ok": false}
	]`)

	tbl, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"sl", "x", "y", "ok"}, tbl.Columns())
	assert.Equal(t, 2, tbl.NumRows())

	v, err := tbl.Cell(0, "sl")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = tbl.Cell(0, "x")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = tbl.Cell(1, "x")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = tbl.Cell(1, "ok")
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

// TestFromJSON_UnevenKeys verifies late keys become columns with missing cells.
func TestFromJSON_UnevenKeys(t *testing.T) {
	data := []byte(`[
		{"a": 1},
		{"a": 2, "b": "late"}
	]`)

	tbl, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())

	v, err := tbl.Cell(0, "b")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = tbl.Cell(1, "b")
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

// TestFromJSON_Errors verifies the rejection cases.
func TestFromJSON_Errors(t *testing.T) {
	_, err := FromJSON([]byte(`{"not": "array"}`))
	assert.ErrorIs(t, err, ErrNotArray)

	_, err = FromJSON([]byte(`[1, 2, 3]`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = FromJSON([]byte(`[{"a": {"nested": 1}}]`))
	assert.ErrorIs(t, err, ErrNestedValue)

	_, err = FromJSON([]byte(`{broken`))
	assert.ErrorIs(t, err, ErrBadJSON)
}

// TestFromJSONPath_Envelope verifies record extraction from nested documents.
func TestFromJSONPath_Envelope(t *testing.T) {
	data := []byte(`{"meta": {"count": 2}, "results": [{"id": 1}, {"id": 2}]}`)

	tbl, err := FromJSONPath(data, "results")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())

	v, err := tbl.Cell(1, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

// TestFromJSONPath_NoMatch verifies a path that selects nothing errors.
func TestFromJSONPath_NoMatch(t *testing.T) {
	_, err := FromJSONPath([]byte(`{"results": []}`), "rows")
	assert.ErrorIs(t, err, ErrNoMatch)
}

// TestFromJSON_IntegerVsFloat verifies literal form decides the cell type.
func TestFromJSON_IntegerVsFloat(t *testing.T) {
	tbl, err := FromJSON([]byte(`[{"i": 3, "f": 3.0}]`))
	require.NoError(t, err)

	v, err := tbl.Cell(0, "i")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = tbl.Cell(0, "f")
	require.NoError(t, err)
	assert.Equal(t, float64(3), v)
}
