package acquire

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// toolStrategy shells out to an external downloader binary (yt-dlp
// compatible flags) keyed by the parsed post URL. Highest-priority
// rung of the ladder when configured.
type toolStrategy struct {
	binary string
}

func (s *toolStrategy) Name() string { return "direct-tool" }

func (s *toolStrategy) Fetch(ctx context.Context, post Post, destPrefix string) (*MediaArtifact, error) {
	cmd := exec.CommandContext(ctx, s.binary,
		"--no-playlist",
		"--quiet",
		"-o", destPrefix+".%(ext)s",
		post.URL,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", s.binary, err, strings.TrimSpace(string(out)))
	}

	// The tool picks the extension; find what it wrote under our prefix.
	matches, err := filepath.Glob(destPrefix + ".*")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("%s: no output file produced", s.binary)
	}
	sort.Strings(matches)

	for _, path := range matches {
		if kind := KindOf(path); kind != "" {
			return &MediaArtifact{Path: path, Kind: kind}, nil
		}
	}
	return nil, fmt.Errorf("%s: produced no recognizable media file", s.binary)
}
