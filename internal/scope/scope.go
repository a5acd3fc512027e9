// Package scope implements the Settings Gate: the configuration-driven
// predicate that decides which schemas and tables this instance handles.
package scope

// Predicate gates schemas and tables by name. An empty KeepSchemas (or
// KeepTables) list means "allow all"; a non-empty list means "deny by
// default, allow only what's listed".
type Predicate struct {
	KeepSchemas []string
	KeepTables  []string
}

// New builds a Predicate from the configured keep-lists.
func New(keepSchemas, keepTables []string) Predicate {
	return Predicate{KeepSchemas: keepSchemas, KeepTables: keepTables}
}

// SkipSchema reports whether schema is out of scope.
func (p Predicate) SkipSchema(schema string) bool {
	return shouldSkip(p.KeepSchemas, schema)
}

// SkipTable reports whether table is out of scope.
func (p Predicate) SkipTable(table string) bool {
	return shouldSkip(p.KeepTables, table)
}

// Skip reports whether the (schema, table) pair is out of scope —
// either half being rejected is enough.
func (p Predicate) Skip(schema, table string) bool {
	return p.SkipSchema(schema) || p.SkipTable(table)
}

func shouldSkip(keepOnly []string, name string) bool {
	if len(keepOnly) == 0 {
		return false
	}
	for _, k := range keepOnly {
		if k == name {
			return false
		}
	}
	return true
}
