package acquire

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Post identifies one social-media post to acquire
type Post struct {
	URL       string
	Shortcode string
}

// Known post path shapes, tried before the generic trailing-segment
// fallback
var shortcodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/p/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/reel/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/tv/([A-Za-z0-9_-]+)`),
}

// ParsePost extracts the post shortcode from a URL. Returns
// ErrUnparseableURL when no identifier can be found, so callers fail
// fast instead of attempting a download that cannot succeed.
func ParsePost(rawURL string) (Post, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Post{}, fmt.Errorf("%w: %v", ErrUnparseableURL, err)
	}

	for _, pat := range shortcodePatterns {
		if m := pat.FindStringSubmatch(parsed.Path); m != nil {
			return Post{URL: rawURL, Shortcode: m[1]}, nil
		}
	}

	// Generic fallback: last non-empty path segment
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" || !regexp.MustCompile(`^[A-Za-z0-9_-]+$`).MatchString(last) {
		return Post{}, fmt.Errorf("%w: %q", ErrUnparseableURL, rawURL)
	}
	return Post{URL: rawURL, Shortcode: last}, nil
}
