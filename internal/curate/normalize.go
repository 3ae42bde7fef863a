package curate

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finbrief/trend-curator/internal/core/domain"
	"github.com/finbrief/trend-curator/internal/platform/observability"
)

// Drop reasons reported on the candidate drop metric.
const (
	dropEmptyLink   = "empty_link"
	dropBlocked     = "blocked"
	dropNonArticle  = "non_article"
	dropFeed        = "feed_page"
	dropNoTimestamp = "no_timestamp"
	dropStale       = "stale"
	dropThinContent = "thin_content"
)

// NormalizeOptions are the quality-gate knobs for one run.
type NormalizeOptions struct {
	Now             time.Time
	Location        *time.Location
	MaxAgeDays      int
	MinContentChars int
	MaxContentChars int
}

// Normalizer turns a raw generator candidate into a fully validated
// Candidate: canonical URL, verified recency, extracted content, resolved
// image. A nil result means the candidate was dropped.
type Normalizer struct {
	classifier    *Classifier
	canonicalizer *Canonicalizer
	images        *ImageResolver
	logger        *zerolog.Logger
}

func NewNormalizer(classifier *Classifier, canonicalizer *Canonicalizer, images *ImageResolver, logger *zerolog.Logger) *Normalizer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Normalizer{
		classifier:    classifier,
		canonicalizer: canonicalizer,
		images:        images,
		logger:        logger,
	}
}

// Normalize runs the full gate sequence on one raw candidate.
func (n *Normalizer) Normalize(ctx context.Context, raw domain.RawCandidate, opts NormalizeOptions) *domain.Candidate {
	link := strings.TrimSpace(raw.Link)
	if link == "" {
		return n.drop(dropEmptyLink, link)
	}

	// Cheap pre-check before spending a fetch on an obviously bad link.
	if n.classifier.IsBlocked(UnwrapRedirect(link)) {
		return n.drop(dropBlocked, link)
	}

	page := n.canonicalizer.Resolve(ctx, link)
	if page.URL == "" {
		return n.drop(dropEmptyLink, link)
	}

	// The canonical URL can land on a different host, so classify again.
	if n.classifier.IsBlocked(page.URL) {
		return n.drop(dropBlocked, page.URL)
	}

	if !n.classifier.LooksLikeArticle(page.URL) {
		return n.drop(dropNonArticle, page.URL)
	}

	if len(page.Body) > 0 && IsFeedDocument(page.Body) {
		return n.drop(dropFeed, page.URL)
	}

	publishedAt, ok := n.resolvePublishedAt(ctx, raw.PublishedAt, &page, opts.Location)
	if !ok {
		return n.drop(dropNoTimestamp, page.URL)
	}

	if !WithinWindow(publishedAt, opts.Now, opts.MaxAgeDays) {
		return n.drop(dropStale, page.URL)
	}

	if page.Doc == nil {
		n.refetch(ctx, &page)
	}

	var content string

	if page.Doc != nil {
		content = ExtractArticleTextFromDoc(page.Doc, page.Body, page.URL)
		content = TruncateContent(content, opts.MaxContentChars)
	}

	if len(strings.TrimSpace(content)) < opts.MinContentChars {
		return n.drop(dropThinContent, page.URL)
	}

	imageURL, needsGen := n.images.Resolve(ctx, page.URL, raw.ImageURL, page.Doc)

	return &domain.Candidate{
		Title:           strings.TrimSpace(raw.Title),
		Summary:         strings.TrimSpace(raw.Summary),
		Content:         content,
		Link:            page.URL,
		ImageURL:        imageURL,
		NeedsImageGen:   needsGen,
		PublishedAt:     publishedAt,
		NormalizedTitle: NormalizeTitle(raw.Title),
	}
}

// resolvePublishedAt prefers the generator's timestamp, then the page's own
// metadata. Fetches the page if canonicalization did not already.
func (n *Normalizer) resolvePublishedAt(ctx context.Context, candidate string, page *Page, loc *time.Location) (time.Time, bool) {
	if t, ok := ParsePublishedAt(candidate, loc); ok {
		return t, true
	}

	if page.Doc == nil {
		n.refetch(ctx, page)
	}

	if page.Doc == nil {
		return time.Time{}, false
	}

	return PublishedFromDoc(page.Doc, loc)
}

// refetch fills in the parsed document for a page whose first fetch did not
// yield HTML. Best effort.
func (n *Normalizer) refetch(ctx context.Context, page *Page) {
	resolved := n.canonicalizer.Resolve(ctx, page.URL)
	if resolved.Doc == nil {
		return
	}

	page.Doc = resolved.Doc
	page.Body = resolved.Body
}

func (n *Normalizer) drop(reason, url string) *domain.Candidate {
	observability.CandidateDrops.WithLabelValues(reason).Inc()

	n.logger.Debug().Str("reason", reason).Str("url", url).Msg("Candidate dropped")

	return nil
}
