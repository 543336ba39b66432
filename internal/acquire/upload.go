package acquire

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SaveUpload persists directly uploaded bytes under a collision-resistant
// name. The extension is validated against the allow-list before any
// bytes are written; a disallowed extension is a ValidationError.
func SaveUpload(dir string, filename string, r io.Reader, allowed []string) (*MediaArtifact, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionAllowed(ext, allowed) {
		return nil, &ValidationError{Msg: fmt.Sprintf("unsupported media type: %s", filename)}
	}

	kind := KindOf(filename)
	if kind == "" {
		return nil, &ValidationError{Msg: fmt.Sprintf("unsupported media type: %s", filename)}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+ext)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &MediaArtifact{Path: path, Kind: kind}, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
