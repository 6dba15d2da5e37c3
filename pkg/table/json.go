package table

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Sentinel errors for JSON ingestion
var (
	ErrNotArray    = errors.New("json input is not an array of objects")
	ErrNotObject   = errors.New("json array element is not an object")
	ErrNestedValue = errors.New("nested json values cannot be table cells")
	ErrBadJSON     = errors.New("invalid json")
	ErrNoMatch     = errors.New("json path matched nothing")
)

// FromJSON builds a table from a JSON array of flat objects.
// Column order follows first appearance across the objects; keys absent
// from an object become missing cells in that row.
func FromJSON(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrBadJSON
	}
	return fromResult(gjson.ParseBytes(data))
}

// FromJSONPath builds a table from the array selected by a gjson path,
// for documents where the records are nested inside an envelope.
func FromJSONPath(data []byte, path string) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrBadJSON
	}
	if path == "" {
		return FromJSON(data)
	}

	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, path)
	}
	return fromResult(result)
}

func fromResult(result gjson.Result) (*Table, error) {
	if !result.IsArray() {
		return nil, ErrNotArray
	}

	// First pass collects the column order and checks shape.
	rows := result.Array()
	t := &Table{index: make(map[string]int)}
	for i, row := range rows {
		if !row.IsObject() {
			return nil, fmt.Errorf("%w: element %d", ErrNotObject, i)
		}
		var iterErr error
		row.ForEach(func(key, value gjson.Result) bool {
			if !t.HasColumn(key.String()) {
				if err := t.AddColumn(key.String()); err != nil {
					iterErr = err
					return false
				}
			}
			return true
		})
		if iterErr != nil {
			return nil, iterErr
		}
	}

	// Second pass fills cells now that the full column set is known.
	for i, row := range rows {
		cells := make(map[string]interface{}, t.NumCols())
		var iterErr error
		row.ForEach(func(key, value gjson.Result) bool {
			cell, err := jsonCell(value)
			if err != nil {
				iterErr = fmt.Errorf("element %d, key %q: %w", i, key.String(), err)
				return false
			}
			cells[key.String()] = cell
			return true
		})
		if iterErr != nil {
			return nil, iterErr
		}

		record := make([]interface{}, t.NumCols())
		for pos, name := range t.Columns() {
			record[pos] = cells[name] // absent keys stay nil
		}
		if err := t.AppendRow(record...); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// jsonCell converts a gjson scalar to a cell value
func jsonCell(value gjson.Result) (interface{}, error) {
	switch value.Type {
	case gjson.Null:
		return nil, nil
	case gjson.False:
		return false, nil
	case gjson.True:
		return true, nil
	case gjson.String:
		return value.Str, nil
	case gjson.Number:
		// Integral numbers become int64, everything else float64
		if value.Num == float64(int64(value.Num)) && !hasFloatSyntax(value.Raw) {
			return int64(value.Num), nil
		}
		return value.Num, nil
	default:
		return nil, ErrNestedValue
	}
}

// hasFloatSyntax reports whether a raw JSON number literal was written in
// decimal or exponent form
func hasFloatSyntax(raw string) bool {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}
