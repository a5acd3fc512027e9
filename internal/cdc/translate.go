package cdc

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Translate converts a PendingRow into the single SQL statement that
// applies it, or "" if the row is a no-op update (spec.md §4.D
// Row→SQL translation). Kept pure and side-effect free so it is
// unit-testable against JSON fixtures (Design Notes §9).
func Translate(row PendingRow) (string, error) {
	switch row.Op {
	case OpInsert:
		return translateInsert(row)
	case OpUpdate:
		return translateUpdate(row)
	case OpDelete:
		return translateDelete(row)
	default:
		return "", fmt.Errorf("cdc: unknown op %q for %s", row.Op, row.FullTable())
	}
}

func translateInsert(row PendingRow) (string, error) {
	if row.NewData == nil {
		return "", fmt.Errorf("cdc: insert row for %s has no newdata", row.FullTable())
	}
	cols := sortedKeys(row.NewData)
	colList := make([]string, len(cols))
	valList := make([]string, len(cols))
	for i, c := range cols {
		colList[i] = c
		valList[i] = SQLLiteral(row.NewData[c])
	}
	return fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES (%s);`,
		row.Schema, row.Table, strings.Join(colList, ","), strings.Join(valList, ",")), nil
}

func translateUpdate(row PendingRow) (string, error) {
	if row.NewData == nil {
		return "", fmt.Errorf("cdc: update row for %s has no newdata", row.FullTable())
	}
	setClause := setClause(row.OldData, row.NewData)
	if setClause == "" {
		return "", nil
	}
	where, err := whereClause(row)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`UPDATE "%s"."%s" SET %s WHERE %s;`, row.Schema, row.Table, setClause, where), nil
}

func translateDelete(row PendingRow) (string, error) {
	where, err := whereClause(row)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`DELETE FROM "%s"."%s" WHERE %s;`, row.Schema, row.Table, where), nil
}

// setClause returns the subset of new whose value differs from old
// (deep equality on JSON scalars), "" if nothing changed.
func setClause(old, new map[string]any) string {
	cols := sortedKeys(new)
	var parts []string
	for _, c := range cols {
		newVal := new[c]
		oldVal, hadOld := old[c]
		if hadOld && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s", c, SQLLiteral(newVal)))
	}
	return strings.Join(parts, ", ")
}

func whereClause(row PendingRow) (string, error) {
	if len(row.KeyCols) == 0 {
		return "", fmt.Errorf("cdc: no primary key columns for %s", row.FullTable())
	}
	parts := make([]string, len(row.KeyCols))
	for i, col := range row.KeyCols {
		val, ok := row.OldData[col]
		if !ok {
			return "", fmt.Errorf("cdc: primary key column %q missing from olddata for %s", col, row.FullTable())
		}
		parts[i] = fmt.Sprintf("%s = %s", col, SQLLiteral(val))
	}
	return strings.Join(parts, " AND "), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
