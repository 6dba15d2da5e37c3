package table

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// MissingToken is the textual form of a missing cell in CSV files and
// flushed logs
const MissingToken = "NA"

// NormalizeCell coerces a value into one of the canonical cell types:
// nil, string, int64, float64, or bool
// Narrower numeric types widen; anything non-scalar is rejected
func NormalizeCell(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case string, bool, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		if val > 9223372036854775807 { // max int64
			return nil, fmt.Errorf("uint value %d exceeds max int64: %w", val, ErrCellType)
		}
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > 9223372036854775807 { // max int64
			return nil, fmt.Errorf("uint64 value %d exceeds max int64: %w", val, ErrCellType)
		}
		return int64(val), nil
	case float32:
		return float64(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("cannot normalize %q: %w", val.String(), ErrCellType)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot use %T as a cell value: %w", v, ErrCellType)
	}
}

// CellString converts a cell value to its string representation
// Missing cells render as MissingToken
func CellString(v interface{}) string {
	if v == nil {
		return MissingToken
	}

	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ParseCell converts a CSV field into a cell value
// MissingToken parses to nil; numeric and boolean literals parse to their
// typed values; everything else stays a string
func ParseCell(s string) interface{} {
	if s == MissingToken {
		return nil
	}

	trimmed := strings.TrimSpace(s)
	if trimmed != "" {
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
		if trimmed == "true" || trimmed == "false" {
			return trimmed == "true"
		}
	}

	return s
}

// ToFloat converts a numeric cell to float64
func ToFloat(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	default:
		return 0, fmt.Errorf("cannot convert %T to float: %w", v, ErrCellType)
	}
}

// IsNumeric returns true if the value is a numeric type
func IsNumeric(v interface{}) bool {
	if v == nil {
		return false
	}

	switch v.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32, float64:
		return true
	case json.Number:
		return true
	default:
		return false
	}
}

// IsMissing returns true if the cell holds no value
func IsMissing(v interface{}) bool {
	return v == nil
}

// CellsEqual compares two cell values
// Missing matches only missing, numeric values compare by magnitude across
// int and float representations, and everything else compares structurally
func CellsEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return ai == bi
		}
	}

	if IsNumeric(a) && IsNumeric(b) {
		af, aerr := ToFloat(a)
		bf, berr := ToFloat(b)
		if aerr == nil && berr == nil {
			return af == bf
		}
	}

	return reflect.DeepEqual(a, b)
}
