package curate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Meta tags consulted for a lead image, in priority order.
var imageMetaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[name="twitter:image:src"]`,
}

// ImageProber is the slice of the web fetcher the image resolver needs.
type ImageProber interface {
	ProbeImage(ctx context.Context, rawURL string) bool
}

// ImageResolver finds a verified image for an article, falling back to the
// publisher favicon when the page offers nothing usable.
type ImageResolver struct {
	prober ImageProber
}

func NewImageResolver(prober ImageProber) *ImageResolver {
	return &ImageResolver{prober: prober}
}

// Resolve returns the image URL for an article plus whether a downstream
// image generation step is needed. The candidate URL from the generator is
// trusted only after a probe; then the page's own og/twitter image; then the
// favicon service. The favicon is a placeholder, so it still flags
// generation.
func (r *ImageResolver) Resolve(ctx context.Context, articleURL, candidateURL string, doc *goquery.Document) (string, bool) {
	candidate := strings.TrimSpace(candidateURL)
	if candidate != "" && isHTTPURL(candidate) && r.prober.ProbeImage(ctx, candidate) {
		return candidate, false
	}

	if doc != nil {
		if og := imageFromDoc(doc, articleURL); og != "" && r.prober.ProbeImage(ctx, og) {
			return og, false
		}
	}

	if fav := FallbackFavicon(articleURL); fav != "" {
		return fav, true
	}

	return "", true
}

// FallbackFavicon builds the favicon-service URL for the article's host.
func FallbackFavicon(articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil || u.Host == "" {
		return ""
	}

	return fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=128", u.Host)
}

func imageFromDoc(doc *goquery.Document, baseURL string) string {
	for _, sel := range imageMetaSelectors {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok {
			continue
		}

		if resolved := resolveRef(content, baseURL); resolved != "" {
			return resolved
		}
	}

	return ""
}
