package config

import "testing"

func TestEnvTransform(t *testing.T) {
	cases := map[string]string{
		"METADADA__db__host":     "db.host",
		"METADADA__DB__HOST":     "db.host",
		"METADADA__sync__artist_batch_size": "sync.artist_batch_size",
		"METADADA__tables__keep_only":       "tables.keep_only",
	}
	for in, want := range cases {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("default db port = %d, want 5432", cfg.DB.Port)
	}
	if cfg.Sync.ArtistBatchSize != 500 {
		t.Errorf("default artist batch size = %d, want 500", cfg.Sync.ArtistBatchSize)
	}
}

func TestDB_DSN(t *testing.T) {
	d := DB{User: "u", Password: "p", Host: "h", Port: 1, Name: "n"}
	want := "postgres://u:p@h:1/n?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
