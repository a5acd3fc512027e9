package scope

import "testing"

func TestSkip_EmptyKeepListAllowsAll(t *testing.T) {
	p := New(nil, nil)
	if p.SkipSchema("musicbrainz") || p.SkipTable("artist") {
		t.Fatal("empty keep-list must allow everything")
	}
}

func TestSkip_NonEmptyKeepListDeniesByDefault(t *testing.T) {
	p := New([]string{"musicbrainz"}, []string{"artist", "release"})

	if p.SkipSchema("musicbrainz") {
		t.Error("musicbrainz should be kept")
	}
	if !p.SkipSchema("cover_art_archive") {
		t.Error("cover_art_archive should be skipped")
	}
	if p.SkipTable("artist") {
		t.Error("artist should be kept")
	}
	if !p.SkipTable("label") {
		t.Error("label should be skipped")
	}
}

func TestSkip_CombinesSchemaAndTable(t *testing.T) {
	p := New([]string{"musicbrainz"}, []string{"artist"})
	if p.Skip("musicbrainz", "artist") {
		t.Error("kept schema and kept table must not be skipped")
	}
	if !p.Skip("musicbrainz", "release") {
		t.Error("kept schema with skipped table must be skipped")
	}
	if !p.Skip("cover_art_archive", "artist") {
		t.Error("skipped schema with kept table must be skipped")
	}
}
