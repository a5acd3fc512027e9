// Package entity holds the relational "Entity Row" shapes consumed by
// Document Projection (spec.md §3, §4.I). Field shapes follow the
// denormalized views the real importer reads, per
// original_source/crates/metadada-db/src/indexables/{artist,album}.rs.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Image is a cover_art_archive row (or event_art_archive, same shape)
// joined in by the owning release's denormalized view.
type Image struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"` // e.g. "Front", "Medium", "Back"
	Approved bool `json:"approved"`
}

// Alias is a name variant (artist alias, release alias, ...).
type Alias struct {
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
}

// ArtistRow is the denormalized artist view row.
type ArtistRow struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	SortName       string    `json:"sort_name"`
	Disambiguation string    `json:"disambiguation"`
	Type           *string   `json:"type"`
	Country        *string   `json:"country"`
	BeginDate      *string   `json:"begin_date"`
	EndDate        *string   `json:"end_date"`
	Aliases        []Alias   `json:"aliases"`
	OldIDs         []uuid.UUID `json:"old_ids"`
	Relations      []Relation  `json:"relations"`
}

// Relation is a link-type relationship (artist/release to external URL).
type Relation struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Track is a single recording position on a medium.
type Track struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
	Title    string    `json:"title"`
	Length   *int       `json:"length_ms"`
}

// Medium is a disc/side within a release, holding its tracks in order.
type Medium struct {
	ID       uuid.UUID `json:"id"`
	Position int        `json:"position"`
	Format   *string    `json:"format"`
	Tracks   []Track    `json:"tracks"`
}

// Release is a concrete release of a release group, with its media and
// any cover-art images attached to it.
type Release struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Date    *string   `json:"date"`
	Country *string   `json:"country"`
	Media   []Medium  `json:"media"`
	Images  []Image   `json:"images"`
}

// AlbumRow is the denormalized release-group ("album") view row,
// aggregating its releases/media/tracks as a nested array (spec.md §3
// Entity Row: "a stored view returning an aggregated array").
type AlbumRow struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	ArtistID       uuid.UUID   `json:"artist_id"`
	ArtistCredit   string      `json:"artist_credit"`
	PrimaryType    *string     `json:"primary_type"`
	FirstReleaseDate *string   `json:"first_release_date"`
	Aliases        []Alias     `json:"aliases"`
	OldIDs         []uuid.UUID `json:"old_ids"`
	Releases       []Release  `json:"releases"`
	Relations      []Relation `json:"relations"`
	CreatedAt      time.Time  `json:"created_at"` // release_group.last_updated
}
