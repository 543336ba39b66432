package acquire

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// browserHeaders makes media requests look like a regular browser
// session. Several endpoints return empty documents to obvious bots.
func browserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
}

// downloadMedia streams a remote media URL into destPrefix plus an
// extension inferred from the response. The caller owns the resulting
// artifact.
func downloadMedia(ctx context.Context, client *http.Client, userAgent, mediaURL, destPrefix string) (*MediaArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	browserHeaders(req, userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	ext := extensionFor(resp.Header.Get("Content-Type"), mediaURL)
	kind := KindOf("x" + ext)
	if kind == "" {
		return nil, fmt.Errorf("fetch media: unsupported content type %q", resp.Header.Get("Content-Type"))
	}

	path := destPrefix + ext
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write media file: %w", err)
	}

	return &MediaArtifact{Path: path, Kind: kind}, nil
}

func extensionFor(contentType, mediaURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "video/mp4":
			return ".mp4"
		case "video/quicktime":
			return ".mov"
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		}
	}
	if parsed, err := url.Parse(mediaURL); err == nil {
		if ext := strings.ToLower(filepath.Ext(parsed.Path)); ext != "" && KindOf(parsed.Path) != "" {
			return ext
		}
	}
	// CDN URLs frequently hide the type; mp4 is the dominant case
	return ".mp4"
}
