package search

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/scdesign/factcheck/internal/llm"
	"github.com/scdesign/factcheck/internal/model"
)

const claimsPrompt = `Extract up to %d short, directly verifiable factual claims from the following content. Each claim must be a single self-contained statement that can be checked against public sources.

Respond with ONLY a JSON array of strings, no other text:
["claim 1", "claim 2"]

Content:
%s`

var (
	jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
	quotedPattern    = regexp.MustCompile(`"([^"\n]{10,300})"`)
	listMarkPattern  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
)

// extractClaims asks the reasoning model for discrete claims and
// degrades through two parsing fallbacks when the structured output is
// malformed: quoted substrings first, then line-based splitting.
func extractClaims(ctx context.Context, backend llm.Capability, content string) ([]model.Claim, error) {
	prompt := fmt.Sprintf(claimsPrompt, model.MaxClaims, content)
	raw, err := backend.Chat(ctx, "You extract verifiable factual claims from content. Respond only with the requested JSON.", prompt)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	texts := parseClaimList(raw)
	if len(texts) == 0 {
		return nil, fmt.Errorf("extract claims: no claims in response")
	}

	claims := make([]model.Claim, 0, model.MaxClaims)
	for _, text := range texts {
		claims = append(claims, model.Claim{Text: text})
		if len(claims) == model.MaxClaims {
			break
		}
	}
	return claims, nil
}

func parseClaimList(raw string) []string {
	// Models habitually wrap JSON in markdown fences.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	if m := jsonArrayPattern.FindString(raw); m != "" {
		var claims []string
		if err := json.Unmarshal([]byte(m), &claims); err == nil {
			return cleanClaims(claims)
		}
	}

	if matches := quotedPattern.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		var claims []string
		for _, m := range matches {
			claims = append(claims, m[1])
		}
		return cleanClaims(claims)
	}

	var claims []string
	for _, line := range strings.Split(raw, "\n") {
		line = listMarkPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if len(line) >= 10 {
			claims = append(claims, line)
		}
	}
	return cleanClaims(claims)
}

func cleanClaims(in []string) []string {
	var out []string
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
