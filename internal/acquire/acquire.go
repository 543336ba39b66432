// Package acquire turns a direct upload or a social-post URL into a
// local media artifact. Remote posts go through a ladder of download
// strategies tried in priority order; every rung absorbs its own
// failures and the ladder only surfaces a typed blocked error once all
// are exhausted.
package acquire

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/retry"
	"github.com/scdesign/factcheck/internal/worker"
)

// Strategy is one rung of the acquisition ladder. Strategies write only
// under the caller-supplied destPrefix, so concurrent acquisitions never
// collide in the shared working directory.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, post Post, destPrefix string) (*MediaArtifact, error)
}

type rung struct {
	strategy Strategy
	policy   retry.Policy
}

// Acquirer runs the acquisition ladder
type Acquirer struct {
	cfg   model.AcquireConfig
	rungs []rung
}

// New builds the ladder from configuration. Disabled strategies are
// simply absent from the ladder.
func New(cfg model.AcquireConfig) *Acquirer {
	// One shared per-host limiter across all rungs.
	limiter := worker.NewLimiter(0.5, 1)

	once := retry.Policy{MaxAttempts: 1}

	var rungs []rung
	if cfg.ExternalTool != "" {
		rungs = append(rungs, rung{strategy: &toolStrategy{binary: cfg.ExternalTool}, policy: once})
	}

	// The authenticated rung is the one worth retrying: transient
	// rate-limit blocks clear, and each attempt re-establishes the
	// session. Jitter avoids the fixed-interval signature remote
	// anti-automation looks for.
	rungs = append(rungs, rung{
		strategy: newSessionStrategy(cfg.UserAgent, cfg.SessionFile, cfg.Username, cfg.Password, limiter),
		policy:   retry.Exponential(cfg.MaxRetries, cfg.RetryDelay, cfg.RetryDelay/2+1),
	})

	if cfg.DirectScrape {
		rungs = append(rungs, rung{strategy: newScrapeStrategy(cfg.UserAgent, limiter), policy: once})
	}

	return &Acquirer{cfg: cfg, rungs: rungs}
}

// newForStrategies is the test seam: a ladder over explicit rungs
func newForStrategies(cfg model.AcquireConfig, rungs []rung) *Acquirer {
	return &Acquirer{cfg: cfg, rungs: rungs}
}

// AcquireURL fetches the media behind a post URL. The returned artifact
// is owned by the caller. On exhaustion the error is a *BlockedError
// carrying the full attempt record.
func (a *Acquirer) AcquireURL(ctx context.Context, rawURL string) (*MediaArtifact, error) {
	post, err := ParsePost(rawURL)
	if err != nil {
		return nil, err
	}

	PurgeStale(a.cfg.UploadDir, a.cfg.FileMaxAge)

	destPrefix := filepath.Join(a.cfg.UploadDir, uuid.NewString())

	var attempts []Attempt
	for _, r := range a.rungs {
		var artifact *MediaArtifact
		err := r.policy.Do(ctx, func(attempt int) error {
			var ferr error
			artifact, ferr = r.strategy.Fetch(ctx, post, destPrefix)
			if ferr != nil {
				slog.Debug("acquisition attempt failed",
					"strategy", r.strategy.Name(), "attempt", attempt, "shortcode", post.Shortcode, "error", ferr)
				attempts = append(attempts, Attempt{Strategy: r.strategy.Name(), Err: ferr})
			}
			return ferr
		})
		if err == nil {
			slog.Info("media acquired",
				"strategy", r.strategy.Name(), "shortcode", post.Shortcode, "kind", artifact.Kind, "path", artifact.Path)
			return artifact, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &BlockedError{URL: rawURL, Attempts: attempts}
}
