package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/scdesign/factcheck/internal/worker"
)

const instagramBase = "https://www.instagram.com"

// sessionStrategy downloads post media through the authenticated web
// API. It reuses a persisted login session when one exists, attempts a
// fresh login otherwise, and falls through to an anonymous request when
// neither works — an expired session is not fatal on its own.
type sessionStrategy struct {
	client      *http.Client
	limiter     *worker.Limiter
	userAgent   string
	sessionFile string
	username    string
	password    string
}

func newSessionStrategy(userAgent, sessionFile, username, password string, limiter *worker.Limiter) *sessionStrategy {
	jar, _ := cookiejar.New(nil)
	return &sessionStrategy{
		client:      &http.Client{Timeout: 60 * time.Second, Jar: jar},
		limiter:     limiter,
		userAgent:   userAgent,
		sessionFile: sessionFile,
		username:    username,
		password:    password,
	}
}

func (s *sessionStrategy) Name() string { return "authenticated-scrape" }

func (s *sessionStrategy) Fetch(ctx context.Context, post Post, destPrefix string) (*MediaArtifact, error) {
	// Each attempt re-establishes the session: the previous try may
	// have invalidated it.
	s.ensureSession(ctx)

	if err := s.limiter.Wait(ctx, post.URL); err != nil {
		return nil, err
	}

	mediaURL, kindHint, err := s.postMediaURL(ctx, post)
	if err != nil {
		return nil, err
	}

	artifact, err := downloadMedia(ctx, s.client, s.userAgent, mediaURL, destPrefix)
	if err != nil {
		return nil, err
	}
	if kindHint != "" {
		artifact.Kind = kindHint
	}
	return artifact, nil
}

// ensureSession loads the persisted session or logs in with configured
// credentials. Failure is logged, not returned: public posts are still
// reachable anonymously.
func (s *sessionStrategy) ensureSession(ctx context.Context) {
	if s.loadSession() {
		return
	}
	if s.username == "" || s.password == "" {
		return
	}
	if err := s.login(ctx); err != nil {
		slog.Warn("login failed, continuing anonymously", "username", s.username, "error", err)
		return
	}
	s.saveSession()
}

type storedCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

func (s *sessionStrategy) loadSession() bool {
	data, err := os.ReadFile(s.sessionFile)
	if err != nil {
		return false
	}
	var cookies []storedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return false
	}

	base, _ := url.Parse(instagramBase)
	restored := make([]*http.Cookie, 0, len(cookies))
	hasSession := false
	for _, c := range cookies {
		if c.Name == "sessionid" && c.Value != "" {
			hasSession = true
		}
		restored = append(restored, &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	if !hasSession {
		return false
	}
	s.client.Jar.SetCookies(base, restored)
	return true
}

func (s *sessionStrategy) saveSession() {
	base, _ := url.Parse(instagramBase)
	var cookies []storedCookie
	for _, c := range s.client.Jar.Cookies(base) {
		cookies = append(cookies, storedCookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return
	}
	if err := os.WriteFile(s.sessionFile, data, 0o600); err != nil {
		slog.Warn("could not persist session", "path", s.sessionFile, "error", err)
	}
}

// login performs the web login flow: fetch a CSRF token, then post the
// browser-format encoded password.
func (s *sessionStrategy) login(ctx context.Context) error {
	csrf, err := s.csrfToken(ctx)
	if err != nil {
		return fmt.Errorf("csrf token: %w", err)
	}

	form := url.Values{}
	form.Set("username", s.username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), s.password))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		instagramBase+"/api/v1/web/accounts/login/ajax/", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	browserHeaders(req, s.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", csrf)
	req.Header.Set("Referer", instagramBase+"/")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if !body.Authenticated {
		return fmt.Errorf("credentials rejected (status %d)", resp.StatusCode)
	}
	return nil
}

func (s *sessionStrategy) csrfToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instagramBase+"/", nil)
	if err != nil {
		return "", err
	}
	browserHeaders(req, s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	base, _ := url.Parse(instagramBase)
	for _, c := range s.client.Jar.Cookies(base) {
		if c.Name == "csrftoken" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("no csrftoken cookie issued")
}

// postMediaURL asks the internal data API for the post's media URLs.
// Works anonymously for public posts; authenticated sessions see more.
func (s *sessionStrategy) postMediaURL(ctx context.Context, post Post) (string, MediaKind, error) {
	apiURL := fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", instagramBase, post.Shortcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", "", err
	}
	browserHeaders(req, s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("post data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("post data: status %d", resp.StatusCode)
	}

	var body struct {
		Items []struct {
			VideoVersions []struct {
				URL string `json:"url"`
			} `json:"video_versions"`
			ImageVersions struct {
				Candidates []struct {
					URL string `json:"url"`
				} `json:"candidates"`
			} `json:"image_versions2"`
		} `json:"items"`
		GraphQL struct {
			ShortcodeMedia struct {
				VideoURL   string `json:"video_url"`
				DisplayURL string `json:"display_url"`
			} `json:"shortcode_media"`
		} `json:"graphql"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("decode post data: %w", err)
	}

	if len(body.Items) > 0 {
		item := body.Items[0]
		if len(item.VideoVersions) > 0 {
			return item.VideoVersions[0].URL, KindVideo, nil
		}
		if len(item.ImageVersions.Candidates) > 0 {
			return item.ImageVersions.Candidates[0].URL, KindImage, nil
		}
	}
	if u := body.GraphQL.ShortcodeMedia.VideoURL; u != "" {
		return u, KindVideo, nil
	}
	if u := body.GraphQL.ShortcodeMedia.DisplayURL; u != "" {
		return u, KindImage, nil
	}
	return "", "", fmt.Errorf("post data: no media URLs in response")
}
