// Package videokey derives storage identifiers for uploaded videos.
//
// A key is built from the file name, byte size and last-modified time, so
// re-opening the same file resolves to the same record. Two distinct files
// that agree on all three attributes share a key; this is accepted.
package videokey

import (
	"strconv"
	"strings"

	"github.com/astro-analytics/video-tagging-go/internal/models"
)

// Prefix is the namespace every video record key starts with.
const Prefix = "video_"

const separator = "_"

// Derive returns video_<name>_<size>_<lastModified>.
func Derive(file models.FileDescriptor) string {
	var b strings.Builder
	b.Grow(len(Prefix) + len(file.Name) + 40)
	b.WriteString(Prefix)
	b.WriteString(file.Name)
	b.WriteString(separator)
	b.WriteString(strconv.FormatInt(file.Size, 10))
	b.WriteString(separator)
	b.WriteString(strconv.FormatInt(file.LastModified, 10))
	return b.String()
}

// IsVideoKey reports whether key lives in the video record namespace.
func IsVideoKey(key string) bool {
	return strings.HasPrefix(key, Prefix)
}

// FilenameToken extracts the human-facing name used in export filenames:
// the key without its prefix, cut at the first remaining separator. File
// names that themselves contain "_" are therefore truncated.
func FilenameToken(key string) string {
	rest := strings.TrimPrefix(key, Prefix)
	if i := strings.Index(rest, separator); i >= 0 {
		return rest[:i]
	}
	return rest
}
