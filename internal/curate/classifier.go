// Package curate filters, normalizes, deduplicates and ranks news candidates
// for a keyword before a snapshot is persisted.
package curate

import (
	"net/url"
	"regexp"
	"strings"
)

// Domains that never yield a usable article page: placeholders, search
// caches and aggregator hubs that redirect elsewhere.
var blockedDomains = map[string]struct{}{
	"example.com":                     {},
	"vertexaisearch.cloud.google.com": {},
	"webcache.googleusercontent.com":  {},
	"news.google.com":                 {},
}

// Host substrings that indicate an intermediary rather than a publisher.
var blockedHostKeywords = []string{
	"vertexaisearch",
	"example.com",
}

// Path segments that mark portal/section pages rather than single articles.
var nonArticlePathHints = []string{
	"/index", "/main", "/home", "/all",
	"/list", "/lists", "/section", "/sections",
	"/category", "/categories",
	"/market_cap", "/volume", "/rise_stocks", "/fall_stocks",
}

var (
	// A date in the path is the strongest signal of an article permalink.
	articleDateRe = regexp.MustCompile(`20\d{2}[./-]\d{1,2}[./-]\d{1,2}`)

	// Long numeric IDs are the second strongest.
	articleIDRe = regexp.MustCompile(`\d{6,}`)
)

const minArticlePathLen = 18

// Classifier decides whether a URL is worth fetching at all and whether it
// plausibly points at a single article.
type Classifier struct {
	extraBlocked map[string]struct{}
}

func NewClassifier(extraBlocked map[string]struct{}) *Classifier {
	return &Classifier{extraBlocked: extraBlocked}
}

// IsBlocked reports whether the URL must be discarded outright: non-http
// scheme, unparseable, or a blocked host.
func (c *Classifier) IsBlocked(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return true
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return true
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return true
	}

	bare := strings.TrimPrefix(host, "www.")

	if _, ok := blockedDomains[bare]; ok {
		return true
	}

	if _, ok := c.extraBlocked[bare]; ok {
		return true
	}

	for _, kw := range blockedHostKeywords {
		if strings.Contains(host, kw) {
			return true
		}
	}

	return false
}

// LooksLikeArticle reports whether the URL path resembles a single article
// permalink rather than a portal, section or ranking page. A path with a
// date or long numeric ID is always an article; a short single-segment path
// never is.
func (c *Classifier) LooksLikeArticle(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)
	if path == "" || path == "/" {
		return false
	}

	for _, hint := range nonArticlePathHints {
		if strings.Contains(path, hint) {
			return false
		}
	}

	if articleDateRe.MatchString(path) || articleIDRe.MatchString(path) {
		return true
	}

	segments := len(strings.Split(strings.Trim(path, "/"), "/"))

	return segments > 1 || len(path) >= minArticlePathLen
}
