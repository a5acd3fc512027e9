package cdc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// SQLLiteral renders v (a decoded JSON scalar/array/object) as a
// Postgres SQL literal (spec.md §4.D SQL literal encoding rules,
// pinned to original_source's sql_literal so round-tripping behavior
// matches the real importer byte-for-byte, including the array cast
// always being ::integer[] regardless of element kind).
//
// Panics on an unsupported array element type, matching spec.md's
// "unsupported element types are a fatal programming error" — this is
// a translator bug, not a runtime condition callers should recover
// from.
func SQLLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case json.Number:
		return val.String()
	case []any:
		return arrayLiteral(val)
	case map[string]any:
		return objectLiteral(val)
	default:
		panic(fmt.Sprintf("cdc: unsupported literal type %T", v))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func arrayLiteral(arr []any) string {
	elems := make([]string, len(arr))
	for i, e := range arr {
		switch val := e.(type) {
		case float64:
			elems[i] = formatNumber(val)
		case json.Number:
			elems[i] = val.String()
		case string:
			elems[i] = strings.ReplaceAll(val, "'", "''")
		default:
			panic(fmt.Sprintf("cdc: unsupported array element type %T", e))
		}
	}
	return "'{" + strings.Join(elems, ",") + "}'::integer[]"
}

func objectLiteral(obj map[string]any) string {
	b, err := json.Marshal(obj)
	if err != nil {
		panic(fmt.Sprintf("cdc: marshal object literal: %v", err))
	}
	return quoteString(string(b))
}
