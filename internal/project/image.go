package project

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/metadada/metamirror/internal/entity"
)

// CoverArtURL composes the canonical Cover Art Archive URL for an
// image attached to releaseID (spec.md §4.I).
func CoverArtURL(releaseID uuid.UUID, imageID int64) string {
	return fmt.Sprintf("https://coverartarchive.org/release/%s/%d", releaseID, imageID)
}

// MirrorURL wraps remoteURL in the cached-mirror form (spec.md §4.I).
func MirrorURL(remoteURL string) string {
	return fmt.Sprintf("https://images.lidarr.audio/cache/%s", remoteURL)
}

const (
	imageTypeFront  = "Front"
	imageTypeMedium = "Medium"
)

// CoverImage returns the composed + mirrored URL pair for the "Cover"
// image: the first image of type Front across the release's images, in
// encounter order. ok is false when no Front image exists.
func CoverImage(releaseID uuid.UUID, images []entity.Image) (remote, mirrored string, ok bool) {
	return firstImageOfType(releaseID, images, imageTypeFront)
}

// DiscImage returns the composed + mirrored URL pair for the "Disc"
// image: the first image of type Medium. ok is false when absent.
func DiscImage(releaseID uuid.UUID, images []entity.Image) (remote, mirrored string, ok bool) {
	return firstImageOfType(releaseID, images, imageTypeMedium)
}

func firstImageOfType(releaseID uuid.UUID, images []entity.Image, typ string) (remote, mirrored string, ok bool) {
	for _, img := range images {
		if img.Type == typ {
			remote = CoverArtURL(releaseID, img.ID)
			return remote, MirrorURL(remote), true
		}
	}
	return "", "", false
}
