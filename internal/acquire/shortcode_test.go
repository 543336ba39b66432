package acquire

import (
	"errors"
	"testing"
)

func TestParsePost_SupportedShapes(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.instagram.com/p/Cxyz123_-/", "Cxyz123_-"},
		{"https://www.instagram.com/reel/AbC9xYz/", "AbC9xYz"},
		{"https://www.instagram.com/tv/QwErTy123/", "QwErTy123"},
		{"https://www.instagram.com/p/Cxyz123/?igsh=tracking", "Cxyz123"},
		{"https://instagram.com/somepage/XyZ123ab", "XyZ123ab"},
	}

	for _, tc := range cases {
		post, err := ParsePost(tc.url)
		if err != nil {
			t.Errorf("ParsePost(%q): unexpected error %v", tc.url, err)
			continue
		}
		if post.Shortcode != tc.want {
			t.Errorf("ParsePost(%q) = %q, want %q", tc.url, post.Shortcode, tc.want)
		}
	}
}

func TestParsePost_Malformed(t *testing.T) {
	cases := []string{
		"https://www.instagram.com/",
		"https://",
		"not a url at all !!",
	}

	for _, raw := range cases {
		_, err := ParsePost(raw)
		if !errors.Is(err, ErrUnparseableURL) {
			t.Errorf("ParsePost(%q): expected ErrUnparseableURL, got %v", raw, err)
		}
	}
}
