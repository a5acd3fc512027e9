package project

import (
	"github.com/google/uuid"

	"github.com/metadada/metamirror/internal/entity"
	"github.com/metadada/metamirror/internal/search"
)

// relationsToLinks projects entity.Relation rows to {type, url} pairs,
// re-deriving the link type from the URL per spec.md §4.I rather than
// trusting the stored type, and dropping any relation whose URL does
// not parse.
func relationsToLinks(relations []entity.Relation) []map[string]string {
	links := make([]map[string]string, 0, len(relations))
	for _, rel := range relations {
		typ, ok := ExtractLinkType(rel.URL)
		if !ok {
			continue
		}
		links = append(links, map[string]string{"type": typ, "url": rel.URL})
	}
	return links
}

func aliasNames(aliases []entity.Alias) []string {
	names := make([]string, 0, len(aliases))
	for _, a := range aliases {
		names = append(names, a.Name)
	}
	return names
}

func oldIDStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// Artist projects an entity.ArtistRow to its search.Document (spec.md
// §4.I, §3 Search Document: "stable id, searchable strings, filterable
// keys, denormalized links").
func Artist(row entity.ArtistRow) search.Document {
	return search.Document{
		"id":             row.ID.String(),
		"oldids":         oldIDStrings(row.OldIDs),
		"artistname":     row.Name,
		"sortname":       row.SortName,
		"disambiguation": row.Disambiguation,
		"type":           row.Type,
		"country":        row.Country,
		"begindate":      row.BeginDate,
		"enddate":        row.EndDate,
		"aliases":        aliasNames(row.Aliases),
		"links":          relationsToLinks(row.Relations),
	}
}

// releaseDocument projects one entity.Release into its nested document
// form, including Cover/Disc image URLs (spec.md §4.I).
func releaseDocument(releaseID uuid.UUID, release entity.Release) map[string]any {
	doc := map[string]any{
		"id":      release.ID.String(),
		"title":   release.Title,
		"date":    release.Date,
		"country": release.Country,
		"media":   mediaDocuments(release.Media),
	}
	if remote, mirrored, ok := CoverImage(releaseID, release.Images); ok {
		doc["cover_image"] = remote
		doc["cover_image_mirror"] = mirrored
	}
	if remote, mirrored, ok := DiscImage(releaseID, release.Images); ok {
		doc["disc_image"] = remote
		doc["disc_image_mirror"] = mirrored
	}
	return doc
}

func mediaDocuments(media []entity.Medium) []map[string]any {
	out := make([]map[string]any, 0, len(media))
	for _, m := range media {
		tracks := make([]map[string]any, 0, len(m.Tracks))
		for _, t := range m.Tracks {
			tracks = append(tracks, map[string]any{
				"id":        t.ID.String(),
				"position":  t.Position,
				"title":     t.Title,
				"length_ms": t.Length,
			})
		}
		out = append(out, map[string]any{
			"id":       m.ID.String(),
			"position": m.Position,
			"format":   m.Format,
			"tracks":   tracks,
		})
	}
	return out
}

// Album projects an entity.AlbumRow to its search.Document, nesting
// its releases/media/tracks as an aggregated array (spec.md §3 Entity
// Row: "a stored view returning an aggregated array").
func Album(row entity.AlbumRow) search.Document {
	releases := make([]map[string]any, 0, len(row.Releases))
	for _, r := range row.Releases {
		releases = append(releases, releaseDocument(r.ID, r))
	}

	return search.Document{
		"id":               row.ID.String(),
		"oldids":           oldIDStrings(row.OldIDs),
		"title":            row.Title,
		"artistid":         row.ArtistID.String(),
		"artistcredit":     row.ArtistCredit,
		"primarytype":      row.PrimaryType,
		"firstreleasedate": row.FirstReleaseDate,
		"aliases":          aliasNames(row.Aliases),
		"links":            relationsToLinks(row.Relations),
		"releases":         releases,
		"createdat":        row.CreatedAt,
	}
}
