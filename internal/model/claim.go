package model

import "time"

// MaxClaims bounds how many discrete claims are extracted per content item
const MaxClaims = 5

// Claim is a short, directly verifiable factual statement extracted
// from content
type Claim struct {
	Text string `json:"text"`
}

// SearchResult is the outcome of one web-search-backed claim check.
// Best-effort: a failed search records Error instead of dropping the entry.
type SearchResult struct {
	Claim     string    `json:"claim"`
	Answer    string    `json:"answer,omitempty"`
	Sources   []Source  `json:"sources,omitempty"`
	Model     string    `json:"model,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}
