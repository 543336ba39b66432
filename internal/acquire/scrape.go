package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/scdesign/factcheck/internal/worker"
)

// Matcher extracts a stable media URL from a rendered post page.
// Provider markup changes are absorbed by editing this table, not the
// strategy control flow.
type Matcher struct {
	Name    string
	Extract func(doc *goquery.Document, raw string) string
}

var defaultMatchers = []Matcher{
	{
		Name: "og-video-meta",
		Extract: func(doc *goquery.Document, _ string) string {
			for _, prop := range []string{"og:video:secure_url", "og:video"} {
				if u, ok := doc.Find(fmt.Sprintf(`meta[property=%q]`, prop)).Attr("content"); ok && u != "" {
					return u
				}
			}
			return ""
		},
	},
	{
		Name: "embedded-json-video-url",
		Extract: func(_ *goquery.Document, raw string) string {
			m := regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`).FindStringSubmatch(raw)
			if m == nil {
				return ""
			}
			return unescapeJSONURL(m[1])
		},
	},
	{
		Name: "video-tag",
		Extract: func(_ *goquery.Document, raw string) string {
			node, err := html.Parse(strings.NewReader(raw))
			if err != nil {
				return ""
			}
			return findVideoSrc(node)
		},
	},
}

// ExtractMediaURL applies the matcher table in order and returns the
// first stable media URL found
func ExtractMediaURL(raw string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		doc = &goquery.Document{}
	}
	for _, m := range defaultMatchers {
		if u := m.Extract(doc, raw); u != "" {
			return u, true
		}
	}
	return "", false
}

func unescapeJSONURL(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return strings.ReplaceAll(s, `&`, "&")
	}
	return out
}

func findVideoSrc(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "video" {
		for _, attr := range n.Attr {
			if attr.Key == "src" && attr.Val != "" {
				return attr.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if src := findVideoSrc(c); src != "" {
			return src
		}
	}
	return ""
}

// scrapeStrategy is the unauthenticated last rung: fetch the public
// embed rendering, run the matcher table, retry the data API with any
// cookies the embed response granted, and finally settle for the
// oEmbed thumbnail image.
type scrapeStrategy struct {
	client    *http.Client
	limiter   *worker.Limiter
	userAgent string
	matchers  []Matcher
}

func newScrapeStrategy(userAgent string, limiter *worker.Limiter) *scrapeStrategy {
	return &scrapeStrategy{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   limiter,
		userAgent: userAgent,
		matchers:  defaultMatchers,
	}
}

func (s *scrapeStrategy) Name() string { return "unauthenticated-HTML-scrape" }

func (s *scrapeStrategy) Fetch(ctx context.Context, post Post, destPrefix string) (*MediaArtifact, error) {
	if err := s.limiter.Wait(ctx, post.URL); err != nil {
		return nil, err
	}

	raw, cookies, err := s.fetchEmbedPage(ctx, post)
	if err == nil {
		if mediaURL, ok := ExtractMediaURL(raw); ok {
			return downloadMedia(ctx, s.client, s.userAgent, mediaURL, destPrefix)
		}
		// Embed page gave no direct URL; its cookies may unlock the
		// higher-fidelity data API.
		if mediaURL, apiErr := s.dataAPIURL(ctx, post, cookies); apiErr == nil {
			return downloadMedia(ctx, s.client, s.userAgent, mediaURL, destPrefix)
		}
	}

	return s.oembedThumbnail(ctx, post, destPrefix)
}

func (s *scrapeStrategy) fetchEmbedPage(ctx context.Context, post Post) (string, []*http.Cookie, error) {
	embedURL := fmt.Sprintf("%s/p/%s/embed/captioned/", instagramBase, post.Shortcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, embedURL, nil)
	if err != nil {
		return "", nil, err
	}
	browserHeaders(req, s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("fetch embed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", nil, fmt.Errorf("read embed: %w", err)
	}
	return string(body), resp.Cookies(), nil
}

func (s *scrapeStrategy) dataAPIURL(ctx context.Context, post Post, cookies []*http.Cookie) (string, error) {
	apiURL := fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", instagramBase, post.Shortcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", err
	}
	browserHeaders(req, s.userAgent)
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("data API: status %d", resp.StatusCode)
	}

	var body struct {
		GraphQL struct {
			ShortcodeMedia struct {
				VideoURL   string `json:"video_url"`
				DisplayURL string `json:"display_url"`
			} `json:"shortcode_media"`
		} `json:"graphql"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("data API: decode: %w", err)
	}
	if u := body.GraphQL.ShortcodeMedia.VideoURL; u != "" {
		return u, nil
	}
	if u := body.GraphQL.ShortcodeMedia.DisplayURL; u != "" {
		return u, nil
	}
	return "", fmt.Errorf("data API: no media URL")
}

// oembedThumbnail fetches the post's oEmbed descriptor and downloads
// the thumbnail. Yields an image even for video posts — a degraded but
// still verifiable artifact.
func (s *scrapeStrategy) oembedThumbnail(ctx context.Context, post Post, destPrefix string) (*MediaArtifact, error) {
	oembedURL := "https://api.instagram.com/oembed/?url=" + url.QueryEscape(post.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return nil, err
	}
	browserHeaders(req, s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed: status %d", resp.StatusCode)
	}

	var body struct {
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("oembed: decode: %w", err)
	}
	if body.ThumbnailURL == "" {
		return nil, fmt.Errorf("oembed: no thumbnail URL")
	}

	artifact, err := downloadMedia(ctx, s.client, s.userAgent, body.ThumbnailURL, destPrefix)
	if err != nil {
		return nil, err
	}
	artifact.Kind = KindImage
	return artifact, nil
}
