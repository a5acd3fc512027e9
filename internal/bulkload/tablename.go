// Package bulkload implements the Bulk Loader (spec.md §4.C): creates
// the mirror schema from embedded SQL scripts, then downloads and
// COPYs every MusicBrainz dump archive table by table.
package bulkload

import "strings"

// mbdumpPrefix is stripped from every tar entry path before it is
// treated as a table name (original_source/.../init.rs).
const mbdumpPrefix = "mbdump/"

// sanitisedSuffix marks a sanitised variant of a table (personal data
// scrubbed) that still loads into the same table name.
const sanitisedSuffix = "_sanitised"

// defaultSchema is used when an entry name carries no "schema." prefix.
const defaultSchema = "musicbrainz"

// TableName resolves one mbdump/ tar entry path to its target
// "schema", "table", or ok=false if the entry is not a data file (not
// under mbdump/).
func TableName(entryPath string) (schema, table string, ok bool) {
	if !strings.HasPrefix(entryPath, mbdumpPrefix) {
		return "", "", false
	}
	name := strings.TrimPrefix(entryPath, mbdumpPrefix)
	name = strings.TrimSuffix(name, sanitisedSuffix)

	if schema, table, found := strings.Cut(name, "."); found {
		return schema, table, true
	}
	return defaultSchema, name, true
}
