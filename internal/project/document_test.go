package project

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/metadada/metamirror/internal/entity"
)

func TestArtist_ProjectsLinksAndAliases(t *testing.T) {
	id := uuid.New()
	row := entity.ArtistRow{
		ID:       id,
		Name:     "Boards of Canada",
		SortName: "Boards of Canada",
		Aliases:  []entity.Alias{{Name: "BoC", Primary: true}},
		Relations: []entity.Relation{
			{Type: "official homepage", URL: "https://www.boardsofcanada.com"},
			{Type: "broken", URL: "not-a-url-%"},
		},
	}

	doc := Artist(row)

	require.Equal(t, id.String(), doc["id"])
	require.Equal(t, []string{"BoC"}, doc["aliases"])
	links := doc["links"].([]map[string]string)
	require.Len(t, links, 1)
	require.Equal(t, "boardsofcanada", links[0]["type"])
}

func TestAlbum_ProjectsCoverImage(t *testing.T) {
	releaseID := uuid.New()
	row := entity.AlbumRow{
		ID:       uuid.New(),
		Title:    "Music Has the Right to Children",
		ArtistID: uuid.New(),
		Releases: []entity.Release{
			{
				ID:    releaseID,
				Title: "Music Has the Right to Children",
				Images: []entity.Image{
					{ID: 1, Type: "Front", Approved: true},
				},
			},
		},
	}

	doc := Album(row)
	releases := doc["releases"].([]map[string]any)
	require.Len(t, releases, 1)
	require.Contains(t, releases[0]["cover_image"], releaseID.String())
	require.Contains(t, releases[0]["cover_image_mirror"], "images.lidarr.audio")
}
