package acquire

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// MediaKind discriminates what a downloaded or uploaded artifact holds
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindImage MediaKind = "image"
)

var videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true}
var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// MediaArtifact is a local media file owned by the pipeline invocation
// that created it. It must never be referenced after Cleanup.
type MediaArtifact struct {
	Path string
	Kind MediaKind
}

// Cleanup removes the artifact file. Safe to call more than once and
// when the file is already gone.
func (a *MediaArtifact) Cleanup() {
	if a == nil || a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		slog.Warn("artifact cleanup failed", "path", a.Path, "error", err)
	}
}

// KindOf classifies a file by extension. Empty for unsupported types.
func KindOf(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExtensions[ext]:
		return KindVideo
	case imageExtensions[ext]:
		return KindImage
	default:
		return ""
	}
}
