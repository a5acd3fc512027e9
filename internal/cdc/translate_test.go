package cdc

import (
	"strings"
	"testing"
)

func TestTranslate_Insert(t *testing.T) {
	row := PendingRow{
		Schema: "musicbrainz",
		Table:  "artist",
		Op:     OpInsert,
		NewData: map[string]any{
			"id":   float64(1),
			"name": "Radiohead",
		},
	}
	sql, err := Translate(row)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	want := `INSERT INTO "musicbrainz"."artist" (id,name) VALUES (1,'Radiohead');`
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestTranslate_Update_OnlyChangedColumns(t *testing.T) {
	row := PendingRow{
		Schema:  "musicbrainz",
		Table:   "artist",
		Op:      OpUpdate,
		KeyCols: []string{"id"},
		OldData: map[string]any{"id": float64(1), "name": "Radiohead", "country": "GB"},
		NewData: map[string]any{"id": float64(1), "name": "Radiohead", "country": "US"},
	}
	sql, err := Translate(row)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	want := `UPDATE "musicbrainz"."artist" SET country = 'US' WHERE id = 1;`
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestTranslate_Update_NoChangeEmitsNothing(t *testing.T) {
	row := PendingRow{
		Schema:  "musicbrainz",
		Table:   "release_group_meta",
		Op:      OpUpdate,
		KeyCols: []string{"id"},
		OldData: map[string]any{"id": float64(1), "rating": float64(5)},
		NewData: map[string]any{"id": float64(1), "rating": float64(5)},
	}
	sql, err := Translate(row)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if sql != "" {
		t.Errorf("sql = %q, want empty (no-op)", sql)
	}
}

func TestTranslate_Delete(t *testing.T) {
	row := PendingRow{
		Schema:  "musicbrainz",
		Table:   "artist",
		Op:      OpDelete,
		KeyCols: []string{"id"},
		OldData: map[string]any{"id": float64(7)},
	}
	sql, err := Translate(row)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	want := `DELETE FROM "musicbrainz"."artist" WHERE id = 7;`
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestTranslate_Delete_MultiColumnKey(t *testing.T) {
	row := PendingRow{
		Schema:  "musicbrainz",
		Table:   "l_artist_url",
		Op:      OpDelete,
		KeyCols: []string{"entity0", "entity1"},
		OldData: map[string]any{"entity0": float64(1), "entity1": float64(2)},
	}
	sql, err := Translate(row)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(sql, "entity0 = 1 AND entity1 = 2") {
		t.Errorf("sql = %q, want AND-joined key equality", sql)
	}
}

func TestTranslate_Update_MissingPrimaryKeyIsError(t *testing.T) {
	row := PendingRow{
		Schema:  "musicbrainz",
		Table:   "artist",
		Op:      OpUpdate,
		KeyCols: []string{"id"},
		OldData: map[string]any{"name": "x"},
		NewData: map[string]any{"name": "y"},
	}
	if _, err := Translate(row); err == nil {
		t.Fatal("expected error for missing primary key in olddata")
	}
}
