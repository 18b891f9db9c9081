package media

import (
	"path"
	"strings"
)

// ThumbnailPrefix is the key prefix under which thumbnails are stored.
const ThumbnailPrefix = "thumbnails/"

// ThumbnailKey returns the storage key of the thumbnail paired with imageID.
func ThumbnailKey(imageID string) string {
	return ThumbnailPrefix + imageID
}

// ThumbnailKeyFromOriginal derives the thumbnail key from an original object
// key by splitting its final path segment into base name and extension.
// Trailing slashes are ignored when locating that segment. For every id
// produced by Upload it equals ThumbnailKey(id).
func ThumbnailKeyFromOriginal(originalKey string) string {
	trimmed := strings.TrimRight(originalKey, "/")
	name := ""
	if trimmed != "" {
		name = path.Base(trimmed)
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return ThumbnailPrefix + base + ext
}

// newImageID joins a generated id with the extension of the client's file name.
func newImageID(generated, originalName string) string {
	return generated + path.Ext(originalName)
}
