// Package validate checks the accessibility of a report's cited source
// URLs. Best-effort and purely annotative: a dead link never fails the
// pipeline, it only shows up in the result payload.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/worker"
)

// Validator HEAD-checks source links concurrently, honoring robots.txt
// and a per-host rate limit
type Validator struct {
	httpClient *http.Client
	workers    int
	limiter    *worker.Limiter
	robots     *RobotsChecker
	userAgent  string
}

// NewValidator creates a validator from configuration
func NewValidator(cfg model.ValidateConfig, userAgent string) *Validator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		workers:   workers,
		limiter:   worker.NewLimiter(rps, 1),
		robots:    NewRobotsChecker(userAgent, timeout),
		userAgent: userAgent,
	}
}

// Check validates every source that carries a URL. Results keep input
// order; sources without URLs are skipped entirely.
func (v *Validator) Check(ctx context.Context, sources []model.Source) []model.SourceStatus {
	var urls []string
	for _, s := range sources {
		if s.URL != "" {
			urls = append(urls, s.URL)
		}
	}
	if len(urls) == 0 {
		return nil
	}

	return worker.Map(ctx, v.workers, urls, func(ctx context.Context, u string) model.SourceStatus {
		return v.checkOne(ctx, u)
	})
}

func (v *Validator) checkOne(ctx context.Context, rawURL string) model.SourceStatus {
	status := model.SourceStatus{URL: rawURL}

	if !v.robots.IsAllowed(ctx, rawURL) {
		status.Error = "disallowed by robots.txt"
		return status
	}
	if err := v.limiter.Wait(ctx, rawURL); err != nil {
		status.Error = err.Error()
		return status
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		status.Error = fmt.Sprintf("create request: %v", err)
		return status
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("request failed: %v", err)
		return status
	}
	resp.Body.Close()

	status.StatusCode = resp.StatusCode
	// Some hosts reject HEAD outright; treat method errors as reachable.
	status.IsAccessible = resp.StatusCode < 400 || resp.StatusCode == http.StatusMethodNotAllowed
	return status
}
