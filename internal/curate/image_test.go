package curate

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

type stubProber struct {
	valid map[string]bool
}

func (s *stubProber) ProbeImage(_ context.Context, rawURL string) bool {
	return s.valid[rawURL]
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	return doc
}

func TestResolveImage_CandidateWins(t *testing.T) {
	r := NewImageResolver(&stubProber{valid: map[string]bool{
		"https://img.example/lead.jpg": true,
	}})

	img, needsGen := r.Resolve(context.Background(), "https://news.example/a/1", "https://img.example/lead.jpg", nil)

	if img != "https://img.example/lead.jpg" || needsGen {
		t.Errorf("Resolve = (%q, %v), want candidate with needsGen=false", img, needsGen)
	}
}

func TestResolveImage_OgImageFallback(t *testing.T) {
	r := NewImageResolver(&stubProber{valid: map[string]bool{
		"https://news.example/og.jpg": true,
	}})

	doc := parseDoc(t, `<html><head><meta property="og:image" content="/og.jpg"></head></html>`)

	img, needsGen := r.Resolve(context.Background(), "https://news.example/a/1", "https://img.example/dead.jpg", doc)

	if img != "https://news.example/og.jpg" || needsGen {
		t.Errorf("Resolve = (%q, %v), want og:image with needsGen=false", img, needsGen)
	}
}

func TestResolveImage_FaviconFlagsGeneration(t *testing.T) {
	r := NewImageResolver(&stubProber{valid: map[string]bool{}})

	doc := parseDoc(t, `<html><head></head><body></body></html>`)

	img, needsGen := r.Resolve(context.Background(), "https://news.example/a/1", "", doc)

	if img != "https://www.google.com/s2/favicons?domain=news.example&sz=128" {
		t.Errorf("img = %q, want favicon URL", img)
	}

	if !needsGen {
		t.Error("favicon fallback must flag image generation")
	}
}

func TestResolveImage_TwitterImage(t *testing.T) {
	r := NewImageResolver(&stubProber{valid: map[string]bool{
		"https://cdn.example/tw.png": true,
	}})

	doc := parseDoc(t, `<html><head><meta name="twitter:image" content="https://cdn.example/tw.png"></head></html>`)

	img, needsGen := r.Resolve(context.Background(), "https://news.example/a/1", "", doc)

	if img != "https://cdn.example/tw.png" || needsGen {
		t.Errorf("Resolve = (%q, %v), want twitter image with needsGen=false", img, needsGen)
	}
}

func TestFallbackFavicon_BadURL(t *testing.T) {
	if got := FallbackFavicon("::not a url::"); got != "" {
		t.Errorf("FallbackFavicon = %q, want empty", got)
	}
}
