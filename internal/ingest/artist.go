package ingest

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metadada/metamirror/internal/entity"
	"github.com/metadada/metamirror/internal/project"
	"github.com/metadada/metamirror/internal/search"
	"github.com/metadada/metamirror/internal/syncledger"
)

// artistRowQuery aggregates an artist's aliases/old-ids/relations into
// JSON arrays in one round trip — the "stored view returning an
// aggregated array" spec.md §3 describes for an Entity Row.
const artistRowQuery = `
SELECT
	a.id, a.name, a.sort_name, a.disambiguation, a.type, a.country,
	a.begin_date, a.end_date,
	COALESCE((SELECT jsonb_agg(jsonb_build_object('name', al.name, 'primary', al.is_primary))
		FROM musicbrainz.artist_alias al WHERE al.artist_id = a.id), '[]'),
	COALESCE((SELECT jsonb_agg(r.gid) FROM musicbrainz.artist_gid_redirect r WHERE r.new_id = a.id), '[]'),
	COALESCE((SELECT jsonb_agg(jsonb_build_object('type', lt.name, 'url', u.url))
		FROM musicbrainz.l_artist_url lau
		JOIN musicbrainz.link lnk ON lnk.id = lau.link
		JOIN musicbrainz.link_type lt ON lt.id = lnk.link_type_id
		JOIN musicbrainz.url u ON u.id = lau.entity1
		WHERE lau.entity0 = a.id), '[]')
FROM musicbrainz.artist a
WHERE a.id > $1
ORDER BY a.id
LIMIT $2
`

// artistRowByIDsQuery is the same aggregation as artistRowQuery, scoped
// to a specific id set instead of keyset-paginated — used by Unsynced
// so incremental sync pushes full documents, not thin ones.
const artistRowByIDsQuery = `
SELECT
	a.id, a.name, a.sort_name, a.disambiguation, a.type, a.country,
	a.begin_date, a.end_date,
	COALESCE((SELECT jsonb_agg(jsonb_build_object('name', al.name, 'primary', al.is_primary))
		FROM musicbrainz.artist_alias al WHERE al.artist_id = a.id), '[]'),
	COALESCE((SELECT jsonb_agg(r.gid) FROM musicbrainz.artist_gid_redirect r WHERE r.new_id = a.id), '[]'),
	COALESCE((SELECT jsonb_agg(jsonb_build_object('type', lt.name, 'url', u.url))
		FROM musicbrainz.l_artist_url lau
		JOIN musicbrainz.link lnk ON lnk.id = lau.link
		JOIN musicbrainz.link_type lt ON lt.id = lnk.link_type_id
		JOIN musicbrainz.url u ON u.id = lau.entity1
		WHERE lau.entity0 = a.id), '[]')
FROM musicbrainz.artist a
WHERE a.id = ANY($1::uuid[])
`

// Artist implements Capability[entity.ArtistRow] against the mirror
// database and the "artists_sync" ledger.
type Artist struct {
	pool      *pgxpool.Pool
	ledger    *syncledger.Ledger
	batchSize int
}

// NewArtist builds an Artist capability.
func NewArtist(pool *pgxpool.Pool, batchSize int) *Artist {
	return &Artist{pool: pool, ledger: syncledger.New(pool, "artists_sync"), batchSize: batchSize}
}

func (a *Artist) IndexName() string { return "artists" }
func (a *Artist) IDField() string   { return "id" }
func (a *Artist) BatchSize() int    { return a.batchSize }

func (a *Artist) Page(ctx context.Context, lastID uuid.UUID, limit int) ([]entity.ArtistRow, error) {
	rows, err := a.pool.Query(ctx, artistRowQuery, lastID, limit)
	if err != nil {
		return nil, fmt.Errorf("ingest: page artists: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}

func (a *Artist) Unsynced(ctx context.Context, limit int) ([]entity.ArtistRow, error) {
	ids, err := a.ledger.Unsynced(ctx, limit)
	if err != nil {
		return nil, err
	}
	return a.byIDs(ctx, ids)
}

func (a *Artist) byIDs(ctx context.Context, ids []uuid.UUID) ([]entity.ArtistRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := a.pool.Query(ctx, artistRowByIDsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("ingest: artists by id: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}

func (a *Artist) CountUnsynced(ctx context.Context) (int64, error) {
	return a.ledger.CountUnsynced(ctx)
}

func (a *Artist) InsertIDs(ctx context.Context, ids []uuid.UUID) error {
	return a.ledger.InsertIDs(ctx, ids)
}

func (a *Artist) MarkSynced(ctx context.Context, ids []uuid.UUID) error {
	return a.ledger.MarkSynced(ctx, ids)
}

func (a *Artist) Project(row entity.ArtistRow) (search.Document, uuid.UUID) {
	return project.Artist(row), row.ID
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanArtistRows(rows rowScanner) ([]entity.ArtistRow, error) {
	var out []entity.ArtistRow
	for rows.Next() {
		var row entity.ArtistRow
		var aliasJSON, oldIDJSON, relJSON []byte
		if err := rows.Scan(&row.ID, &row.Name, &row.SortName, &row.Disambiguation, &row.Type,
			&row.Country, &row.BeginDate, &row.EndDate, &aliasJSON, &oldIDJSON, &relJSON); err != nil {
			return nil, fmt.Errorf("ingest: scan artist row: %w", err)
		}
		if err := json.Unmarshal(aliasJSON, &row.Aliases); err != nil {
			return nil, fmt.Errorf("ingest: decode artist aliases: %w", err)
		}
		if err := json.Unmarshal(oldIDJSON, &row.OldIDs); err != nil {
			return nil, fmt.Errorf("ingest: decode artist old ids: %w", err)
		}
		if err := json.Unmarshal(relJSON, &row.Relations); err != nil {
			return nil, fmt.Errorf("ingest: decode artist relations: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
