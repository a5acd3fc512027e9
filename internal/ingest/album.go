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

// albumRowQuery aggregates a release group's releases, each release's
// media/tracks, and the cover_art_archive images attached to each
// release, all in one round trip (spec.md §3: "a stored view
// returning an aggregated array").
const albumRowQuery = `
SELECT
	rg.id, rg.title, rg.artist_id, rg.artist_credit, rg.primary_type, rg.first_release_date, rg.last_updated,
	COALESCE((SELECT jsonb_agg(jsonb_build_object('name', rga.name, 'primary', rga.is_primary))
		FROM musicbrainz.release_group_alias rga WHERE rga.release_group_id = rg.id), '[]'),
	COALESCE((SELECT jsonb_agg(r.gid) FROM musicbrainz.release_group_gid_redirect r WHERE r.new_id = rg.id), '[]'),
	COALESCE((SELECT jsonb_agg(jsonb_build_object('type', lt.name, 'url', u.url))
		FROM musicbrainz.l_release_group_url lru
		JOIN musicbrainz.link lnk ON lnk.id = lru.link
		JOIN musicbrainz.link_type lt ON lt.id = lnk.link_type_id
		JOIN musicbrainz.url u ON u.id = lru.entity1
		WHERE lru.entity0 = rg.id), '[]'),
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', rel.id, 'title', rel.title, 'date', rel.date, 'country', rel.country,
			'media', (
				SELECT COALESCE(jsonb_agg(jsonb_build_object(
					'id', med.id, 'position', med.position, 'format', med.format,
					'tracks', (
						SELECT COALESCE(jsonb_agg(jsonb_build_object(
							'id', trk.id, 'position', trk.position, 'title', trk.title, 'length_ms', trk.length_ms
						) ORDER BY trk.position), '[]')
						FROM musicbrainz.track trk WHERE trk.medium_id = med.id
					)
				) ORDER BY med.position), '[]')
				FROM musicbrainz.medium med WHERE med.release_id = rel.id
			),
			'images', (
				SELECT COALESCE(jsonb_agg(jsonb_build_object('id', ca.id, 'type', ca.type, 'approved', ca.approved)), '[]')
				FROM cover_art_archive.cover_art ca WHERE ca.release_id = rel.id
			)
		))
		FROM musicbrainz.release rel WHERE rel.release_group_id = rg.id
	), '[]')
FROM musicbrainz.release_group rg
WHERE rg.id > $1
ORDER BY rg.id
LIMIT $2
`

// albumRowByIDsQuery is the same aggregation as albumRowQuery, scoped
// to a specific id set instead of keyset-paginated — used by Unsynced
// so incremental sync pushes full documents, not thin ones.
const albumRowByIDsQuery = `
SELECT
	rg.id, rg.title, rg.artist_id, rg.artist_credit, rg.primary_type, rg.first_release_date, rg.last_updated,
	COALESCE((SELECT jsonb_agg(jsonb_build_object('name', rga.name, 'primary', rga.is_primary))
		FROM musicbrainz.release_group_alias rga WHERE rga.release_group_id = rg.id), '[]'),
	COALESCE((SELECT jsonb_agg(r.gid) FROM musicbrainz.release_group_gid_redirect r WHERE r.new_id = rg.id), '[]'),
	COALESCE((SELECT jsonb_agg(jsonb_build_object('type', lt.name, 'url', u.url))
		FROM musicbrainz.l_release_group_url lru
		JOIN musicbrainz.link lnk ON lnk.id = lru.link
		JOIN musicbrainz.link_type lt ON lt.id = lnk.link_type_id
		JOIN musicbrainz.url u ON u.id = lru.entity1
		WHERE lru.entity0 = rg.id), '[]'),
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', rel.id, 'title', rel.title, 'date', rel.date, 'country', rel.country,
			'media', (
				SELECT COALESCE(jsonb_agg(jsonb_build_object(
					'id', med.id, 'position', med.position, 'format', med.format,
					'tracks', (
						SELECT COALESCE(jsonb_agg(jsonb_build_object(
							'id', trk.id, 'position', trk.position, 'title', trk.title, 'length_ms', trk.length_ms
						) ORDER BY trk.position), '[]')
						FROM musicbrainz.track trk WHERE trk.medium_id = med.id
					)
				) ORDER BY med.position), '[]')
				FROM musicbrainz.medium med WHERE med.release_id = rel.id
			),
			'images', (
				SELECT COALESCE(jsonb_agg(jsonb_build_object('id', ca.id, 'type', ca.type, 'approved', ca.approved)), '[]')
				FROM cover_art_archive.cover_art ca WHERE ca.release_id = rel.id
			)
		))
		FROM musicbrainz.release rel WHERE rel.release_group_id = rg.id
	), '[]')
FROM musicbrainz.release_group rg
WHERE rg.id = ANY($1::uuid[])
`

// Album implements Capability[entity.AlbumRow] against the mirror
// database and the "releases_sync" ledger — release groups are the
// "album" unit the spec's Entity Row aggregates over.
type Album struct {
	pool      *pgxpool.Pool
	ledger    *syncledger.Ledger
	batchSize int
}

// NewAlbum builds an Album capability.
func NewAlbum(pool *pgxpool.Pool, batchSize int) *Album {
	return &Album{pool: pool, ledger: syncledger.New(pool, "releases_sync"), batchSize: batchSize}
}

func (a *Album) IndexName() string { return "albums" }
func (a *Album) IDField() string   { return "id" }
func (a *Album) BatchSize() int    { return a.batchSize }

func (a *Album) Page(ctx context.Context, lastID uuid.UUID, limit int) ([]entity.AlbumRow, error) {
	rows, err := a.pool.Query(ctx, albumRowQuery, lastID, limit)
	if err != nil {
		return nil, fmt.Errorf("ingest: page albums: %w", err)
	}
	defer rows.Close()
	return scanAlbumRows(rows)
}

func (a *Album) Unsynced(ctx context.Context, limit int) ([]entity.AlbumRow, error) {
	ids, err := a.ledger.Unsynced(ctx, limit)
	if err != nil {
		return nil, err
	}
	return a.byIDs(ctx, ids)
}

func (a *Album) byIDs(ctx context.Context, ids []uuid.UUID) ([]entity.AlbumRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := a.pool.Query(ctx, albumRowByIDsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("ingest: albums by id: %w", err)
	}
	defer rows.Close()
	return scanAlbumRows(rows)
}

func (a *Album) CountUnsynced(ctx context.Context) (int64, error) {
	return a.ledger.CountUnsynced(ctx)
}

func (a *Album) InsertIDs(ctx context.Context, ids []uuid.UUID) error {
	return a.ledger.InsertIDs(ctx, ids)
}

func (a *Album) MarkSynced(ctx context.Context, ids []uuid.UUID) error {
	return a.ledger.MarkSynced(ctx, ids)
}

func (a *Album) Project(row entity.AlbumRow) (search.Document, uuid.UUID) {
	return project.Album(row), row.ID
}

func scanAlbumRows(rows rowScanner) ([]entity.AlbumRow, error) {
	var out []entity.AlbumRow
	for rows.Next() {
		var row entity.AlbumRow
		var aliasJSON, oldIDJSON, relJSON, releaseJSON []byte
		if err := rows.Scan(&row.ID, &row.Title, &row.ArtistID, &row.ArtistCredit, &row.PrimaryType,
			&row.FirstReleaseDate, &row.CreatedAt, &aliasJSON, &oldIDJSON, &relJSON, &releaseJSON); err != nil {
			return nil, fmt.Errorf("ingest: scan album row: %w", err)
		}
		if err := json.Unmarshal(aliasJSON, &row.Aliases); err != nil {
			return nil, fmt.Errorf("ingest: decode album aliases: %w", err)
		}
		if err := json.Unmarshal(oldIDJSON, &row.OldIDs); err != nil {
			return nil, fmt.Errorf("ingest: decode album old ids: %w", err)
		}
		if err := json.Unmarshal(relJSON, &row.Relations); err != nil {
			return nil, fmt.Errorf("ingest: decode album relations: %w", err)
		}
		if err := json.Unmarshal(releaseJSON, &row.Releases); err != nil {
			return nil, fmt.Errorf("ingest: decode album releases: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
