package bulkload

import "testing"

// TestArchiveFileNames locks the exact dump filenames this system
// requests from the MusicBrainz export server, including its upstream
// "even-art-archive" (sic) misspelling — a wrong literal here 404s
// every bootstrap against the real server.
func TestArchiveFileNames(t *testing.T) {
	want := map[string]string{
		"mbdump.tar.bz2":                   "",
		"mbdump-derived.tar.bz2":           "",
		"mbdump-cover-art-archive.tar.bz2": "cover_art_archive",
		"mbdump-even-art-archive.tar.bz2":  "event_art_archive",
		"mbdump-stats.tar.bz2":             "statistics",
	}
	if len(archiveFiles) != len(want) {
		t.Fatalf("archiveFiles has %d entries, want %d", len(archiveFiles), len(want))
	}
	for _, af := range archiveFiles {
		schema, ok := want[af.name]
		if !ok {
			t.Errorf("unexpected archive file name %q", af.name)
			continue
		}
		if af.schema != schema {
			t.Errorf("archiveFile %q: schema = %q, want %q", af.name, af.schema, schema)
		}
	}
}
