// Package search augments a verification report with independent
// web-search-backed checks of the content's discrete claims. Strictly
// best-effort: a failed search records an error on its entry and the
// rest of the batch continues.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/scdesign/factcheck/internal/llm"
	"github.com/scdesign/factcheck/internal/model"
)

// contentExcerptCap bounds how much content is sent for claim extraction
const contentExcerptCap = 2000

const searchPrompt = `Fact-check this claim using current web sources. State whether it is accurate, inaccurate, or unverifiable, cite the sources you used, and keep the answer under 200 words.

Claim: %s`

const fallbackCaveat = "Note: live web search was unavailable; this assessment is based on the model's training knowledge and may not reflect recent events."

// Augmenter performs claim-search augmentation
type Augmenter struct {
	backend llm.Capability
}

// NewAugmenter creates an augmenter over a resolved capability
func NewAugmenter(backend llm.Capability) *Augmenter {
	return &Augmenter{backend: backend}
}

// Augment extracts claims from content and verifies each one
// independently. Claims are processed sequentially and results keep
// extraction order. An empty or all-error result is valid.
func (a *Augmenter) Augment(ctx context.Context, content string) []model.SearchResult {
	if a.backend == nil {
		return nil
	}
	if len(content) > contentExcerptCap {
		content = content[:contentExcerptCap]
	}

	claims, err := extractClaims(ctx, a.backend, content)
	if err != nil {
		slog.Warn("claim extraction failed", "error", err)
		return nil
	}

	models := a.backend.Models()
	results := make([]model.SearchResult, 0, len(claims))
	for _, claim := range claims {
		results = append(results, a.checkClaim(ctx, claim, models))
	}
	return results
}

// checkClaim verifies one claim: web-search model first, plain model
// with an explicit caveat second, recorded error last.
func (a *Augmenter) checkClaim(ctx context.Context, claim model.Claim, models model.ModelsUsed) model.SearchResult {
	result := model.SearchResult{Claim: claim.Text, CheckedAt: time.Now().UTC()}

	answer, err := a.backend.ChatSearch(ctx, "You are a fact-checker with live web access. Cite stable source URLs.", fmt.Sprintf(searchPrompt, claim.Text))
	if err == nil {
		result.Answer = answer
		result.Model = models.WebSearch
		result.Sources = sourcesFromText(answer)
		return result
	}
	slog.Warn("web search failed, falling back to plain model", "claim", claim.Text, "error", err)

	answer, ferr := a.backend.Chat(ctx, "You are a careful fact-checker. You do not have live web access.", fmt.Sprintf(searchPrompt, claim.Text))
	if ferr == nil {
		result.Answer = answer + "\n\n" + fallbackCaveat
		result.Model = models.FactCheck
		return result
	}

	result.Error = fmt.Sprintf("search failed: %v; fallback failed: %v", err, ferr)
	return result
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]]+`)

// sourcesFromText pulls the cited URLs out of a search answer
func sourcesFromText(text string) []model.Source {
	seen := make(map[string]bool)
	var sources []model.Source
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if seen[u] {
			continue
		}
		seen[u] = true
		sources = append(sources, model.Source{Description: u, URL: u})
	}
	return sources
}
