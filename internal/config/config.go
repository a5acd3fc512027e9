// Package config loads metamirror's configuration from a TOML file and
// environment variables prefixed METADADA__, nested with a double
// underscore, layered defaults → file → env per spec.md §6.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every recognized environment variable carries.
const EnvPrefix = "METADADA__"

// DefaultConfigPaths lists the paths searched, in order, for a TOML
// config file when none is given explicitly.
var DefaultConfigPaths = []string{
	"./config.toml",
	"/etc/metamirror/config.toml",
}

// DB holds the DSN components shared by the mirror and sync-state pools.
type DB struct {
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
}

// DSN renders the standard libpq connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Meili holds the search backend endpoint and credentials.
type Meili struct {
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`
}

// API holds the out-of-scope query API's own settings.
type API struct {
	Port int `koanf:"port"`
}

// Sync holds per-entity-kind batch sizes for ingest and full rebuild.
type Sync struct {
	ArtistBatchSize int `koanf:"artist_batch_size"`
	AlbumBatchSize  int `koanf:"album_batch_size"`
}

// MusicBrainz holds the upstream replication packet mirror endpoint.
type MusicBrainz struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

// Tables / Schema hold the scope predicate's keep-lists.
type Tables struct {
	KeepOnly []string `koanf:"keep_only"`
}

type Schema struct {
	KeepOnly []string `koanf:"keep_only"`
}

// Config is the fully-resolved runtime configuration.
type Config struct {
	DB          DB          `koanf:"db"`
	Meili       Meili       `koanf:"meili"`
	API         API         `koanf:"api"`
	Sync        Sync        `koanf:"sync"`
	MusicBrainz MusicBrainz `koanf:"musicbrainz"`
	Tables      Tables      `koanf:"tables"`
	Schema      Schema      `koanf:"schema"`
}

func defaults() *Config {
	return &Config{
		DB: DB{
			User: "metamirror",
			Host: "localhost",
			Port: 5432,
			Name: "metamirror",
		},
		API:  API{Port: 7700},
		Sync: Sync{ArtistBatchSize: 500, AlbumBatchSize: 500},
		MusicBrainz: MusicBrainz{
			URL: "http://ftp.musicbrainz.org/pub/musicbrainz/data",
		},
	}
}

// Load resolves configuration from defaults, an optional TOML file, and
// METADADA__-prefixed environment variables, in that ascending order of
// precedence. The file is configPath when configPath is non-empty (no
// file is read if it does not exist), otherwise the first of
// DefaultConfigPaths that exists.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := resolveConfigPath(configPath); path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// envTransform maps METADADA__db__host to the koanf path "db.host".
func envTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
