// Package media stores uploaded pictures and videos and resolves them to URLs.
package media

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/collabnet/internal/models"
)

// Object key prefixes.
const (
	PostImagePrefix  = "post_images"
	PostVideoPrefix  = "post_videos"
	ProfilePicPrefix = "profile_pics"
)

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}
	videoExts = map[string]bool{".mp4": true, ".webm": true, ".ogg": true}
)

// Classify maps a file name to a post media type by its extension.
// An empty name means the post has no media.
func Classify(name string) string {
	if name == "" {
		return models.MediaNone
	}
	ext := strings.ToLower(path.Ext(name))
	switch {
	case imageExts[ext]:
		return models.MediaImage
	case videoExts[ext]:
		return models.MediaVideo
	default:
		return models.MediaUnknown
	}
}

// IsImage reports whether name has an image extension.
func IsImage(name string) bool {
	return Classify(name) == models.MediaImage
}

// NewKey builds a unique object key under prefix that keeps name's extension.
func NewKey(prefix, name string) string {
	return prefix + "/" + uuid.NewString() + strings.ToLower(path.Ext(name))
}

// PrefixFor picks the key prefix for a post attachment of the given media type.
func PrefixFor(mediaType string) string {
	if mediaType == models.MediaVideo {
		return PostVideoPrefix
	}
	return PostImagePrefix
}
