// Package domain holds the core data types shared across the curation
// pipeline and the storage layer.
package domain

import (
	"strings"
	"time"
)

// Scope is an independent market partition with its own keyword set and
// daily snapshot.
type Scope string

// Supported market scopes.
const (
	ScopeKR Scope = "KR"
	ScopeUS Scope = "US"
)

// PublishedAtLayout is the canonical wire format for publication timestamps,
// both in generator responses and in persisted rows.
const PublishedAtLayout = "2006-01-02 15:04"

// RawCandidate is a generator-supplied news suggestion. It is ephemeral and
// never persisted as-is; every field is untrusted until normalization.
type RawCandidate struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Link        string `json:"link"`
	ImageURL    string `json:"image_url"`
	PublishedAt string `json:"published_at"`
}

// KeywordSeed is one keyword suggested by the generator together with its
// initial batch of news candidates.
type KeywordSeed struct {
	Keyword string
	Reason  string
	News    []RawCandidate
}

// Candidate is a fully normalized, in-memory news candidate. Invariants held
// on construction: Link is a redirect-unwrapped, fragment-stripped absolute
// URL; PublishedAt falls inside the recency window; Content length is within
// the configured bounds.
type Candidate struct {
	Title           string
	Summary         string
	Content         string
	Link            string
	ImageURL        string
	NeedsImageGen   bool
	PublishedAt     time.Time
	NormalizedTitle string
}

// HasRealImage reports whether the candidate carries an actual article image
// rather than the synthesized favicon placeholder.
func (c *Candidate) HasRealImage() bool {
	return c.ImageURL != "" && !c.NeedsImageGen
}

// PublishedAtText renders the publication time in the persisted wire format.
func (c *Candidate) PublishedAtText() string {
	return c.PublishedAt.Format(PublishedAtLayout)
}

// NewsItem is a persisted pick. It is owned by its KeywordGroup and is
// cascade-deleted with it.
type NewsItem struct {
	ID            int64
	Title         string
	Summary       string
	Content       string
	Link          string
	ImageURL      string
	PublishedAt   string // PublishedAtLayout
	NeedsImageGen bool
}

// KeywordGroup is one ranked keyword of a daily snapshot together with its
// picked news items. Unique per (Date, Scope, Rank).
type KeywordGroup struct {
	ID      int64
	Date    time.Time
	Scope   Scope
	Rank    int
	Keyword string
	Reason  string
	Items   []NewsItem
}

// ParseScope normalizes a scope string; unknown values map to ScopeUS, which
// mirrors how the generator prompts treat non-KR markets.
func ParseScope(s string) Scope {
	if Scope(strings.ToUpper(strings.TrimSpace(s))) == ScopeKR {
		return ScopeKR
	}

	return ScopeUS
}
