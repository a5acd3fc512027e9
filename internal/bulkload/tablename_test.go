package bulkload

import "testing"

func TestTableName(t *testing.T) {
	cases := []struct {
		name       string
		entry      string
		wantSchema string
		wantTable  string
		wantOK     bool
	}{
		{"plain musicbrainz table", "mbdump/artist", "musicbrainz", "artist", true},
		{"schema-qualified table", "mbdump/cover_art_archive.cover_art", "cover_art_archive", "cover_art", true},
		{"sanitised suffix stripped", "mbdump/editor_sanitised", "musicbrainz", "editor", true},
		{"schema-qualified and sanitised", "mbdump/statistics.stats_sanitised", "statistics", "stats", true},
		{"not a data entry", "README", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			schema, table, ok := TableName(c.entry)
			if ok != c.wantOK || schema != c.wantSchema || table != c.wantTable {
				t.Errorf("TableName(%q) = (%q, %q, %v), want (%q, %q, %v)",
					c.entry, schema, table, ok, c.wantSchema, c.wantTable, c.wantOK)
			}
		})
	}
}
