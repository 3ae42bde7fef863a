package curate

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/finbrief/trend-curator/internal/core/fetch"
)

// Query parameters that aggregators stuff the real article URL into.
var redirectParamKeys = []string{"url", "u", "q", "target", "dest", "destination", "redirect", "redir"}

// PageFetcher is the slice of the web fetcher the canonicalizer needs.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Canonicalizer resolves a candidate link to its canonical article URL and
// keeps the fetched page around for downstream extraction.
type Canonicalizer struct {
	fetcher PageFetcher
}

func NewCanonicalizer(fetcher PageFetcher) *Canonicalizer {
	return &Canonicalizer{fetcher: fetcher}
}

// Page is the outcome of canonicalization. Doc and Body are nil when the
// page could not be fetched or was not HTML; URL is still the best known
// form of the link.
type Page struct {
	URL  string
	Doc  *goquery.Document
	Body []byte
}

// Resolve unwraps redirector wrappers, follows HTTP redirects and honors the
// page's own canonical declaration. Any failure along the way degrades to
// the best URL known so far instead of erroring.
func (c *Canonicalizer) Resolve(ctx context.Context, rawURL string) Page {
	unwrapped := UnwrapRedirect(rawURL)

	result, err := c.fetcher.Fetch(ctx, unwrapped)
	if err != nil || result == nil {
		best := unwrapped
		if result != nil && result.FinalURL != "" {
			best = result.FinalURL
		}

		return Page{URL: StripFragment(best)}
	}

	finalURL := StripFragment(result.FinalURL)

	if !result.IsHTML() || len(result.Body) == 0 {
		return Page{URL: finalURL}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return Page{URL: finalURL}
	}

	if canon := canonicalFromDoc(doc, finalURL); canon != "" {
		finalURL = StripFragment(canon)
	}

	return Page{URL: finalURL, Doc: doc, Body: result.Body}
}

// UnwrapRedirect extracts the destination URL from a redirector link such as
// "https://r.example/out?url=https%3A%2F%2Fnews.example%2Fa". Non-redirector
// URLs pass through unchanged.
func UnwrapRedirect(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)

	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return trimmed
	}

	query := u.Query()

	for _, key := range redirectParamKeys {
		candidate := strings.TrimSpace(query.Get(key))
		if candidate == "" {
			continue
		}

		if unescaped, err := url.QueryUnescape(candidate); err == nil {
			candidate = strings.TrimSpace(unescaped)
		}

		if isHTTPURL(candidate) {
			return candidate
		}
	}

	return trimmed
}

// StripFragment drops the #fragment part of a URL.
func StripFragment(rawURL string) string {
	if idx := strings.Index(rawURL, "#"); idx != -1 {
		return rawURL[:idx]
	}

	return rawURL
}

func canonicalFromDoc(doc *goquery.Document, baseURL string) string {
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if resolved := resolveRef(href, baseURL); resolved != "" {
			return resolved
		}
	}

	if content, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok {
		if resolved := resolveRef(content, baseURL); resolved != "" {
			return resolved
		}
	}

	return ""
}

func resolveRef(ref, baseURL string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	if strings.HasPrefix(ref, "/") {
		base, err := url.Parse(baseURL)
		if err != nil {
			return ""
		}

		refURL, err := url.Parse(ref)
		if err != nil {
			return ""
		}

		ref = base.ResolveReference(refURL).String()
	}

	if !isHTTPURL(ref) {
		return ""
	}

	return ref
}

func isHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
