package curate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finbrief/trend-curator/internal/core/domain"
	"github.com/finbrief/trend-curator/internal/platform/config"
	"github.com/finbrief/trend-curator/internal/platform/observability"
)

// Placeholder used when the generator yields fewer keywords than the slot
// count; ranks stay stable for downstream consumers.
const (
	placeholderKeyword = "N/A"
	placeholderReason  = "no data"
)

// Generator produces trend keywords and news candidates.
type Generator interface {
	GenerateSeed(ctx context.Context, scope domain.Scope, now time.Time, keywordLimit, newsPerKeyword, maxAgeDays int) ([]domain.KeywordSeed, error)
	RefillKeyword(ctx context.Context, scope domain.Scope, keyword string, excludeURLs []string, batchSize, maxAgeDays int) ([]domain.RawCandidate, error)
}

// SnapshotStore persists a scope's daily snapshot.
type SnapshotStore interface {
	ReplaceSnapshot(ctx context.Context, date time.Time, scope domain.Scope, groups []domain.KeywordGroup) error
}

// Runner executes one full curation run: for every configured scope it asks
// the generator for keywords, builds and ranks candidate pools, and replaces
// the scope's snapshot atomically.
type Runner struct {
	gen    Generator
	store  SnapshotStore
	pools  *PoolBuilder
	cfg    *config.Config
	logger *zerolog.Logger
}

func NewRunner(gen Generator, store SnapshotStore, pools *PoolBuilder, cfg *config.Config, logger *zerolog.Logger) *Runner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Runner{
		gen:    gen,
		store:  store,
		pools:  pools,
		cfg:    cfg,
		logger: logger,
	}
}

// Run processes every configured scope. A failing scope does not stop the
// others; their errors are joined.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := r.logger.With().Str("run_id", runID).Logger()

	var errs []error

	for _, raw := range r.cfg.Scopes {
		scope := domain.ParseScope(raw)

		if err := r.runScope(ctx, scope, &logger); err != nil {
			logger.Error().Err(err).Str("scope", string(scope)).Msg("Scope run failed")
			errs = append(errs, fmt.Errorf("scope %s: %w", scope, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Runner) runScope(ctx context.Context, scope domain.Scope, logger *zerolog.Logger) error {
	start := time.Now()

	defer func() {
		observability.ScopeRunDuration.WithLabelValues(string(scope)).Observe(time.Since(start).Seconds())
	}()

	now := time.Now().In(r.cfg.Location())

	seeds, err := r.gen.GenerateSeed(ctx, scope, now, r.cfg.KeywordLimit, r.cfg.ResultLimit, r.cfg.MaxAgeDays)
	if err != nil {
		observability.SnapshotsSaved.WithLabelValues(string(scope), "error").Inc()

		return fmt.Errorf("generate seed: %w", err)
	}

	seeds = padSeeds(seeds, r.cfg.KeywordLimit)

	global := NewDedupSet()
	groups := make([]domain.KeywordGroup, 0, len(seeds))

	for rank, seed := range seeds {
		group := domain.KeywordGroup{
			Date:    dateOf(now),
			Scope:   scope,
			Rank:    rank + 1,
			Keyword: seed.Keyword,
			Reason:  seed.Reason,
		}

		if seed.Keyword != placeholderKeyword {
			group.Items = r.curateKeyword(ctx, scope, seed, now, global, logger)
		}

		groups = append(groups, group)
	}

	groups = FinalDedupe(groups)

	if err := r.store.ReplaceSnapshot(ctx, dateOf(now), scope, groups); err != nil {
		observability.SnapshotsSaved.WithLabelValues(string(scope), "error").Inc()

		return fmt.Errorf("replace snapshot: %w", err)
	}

	observability.SnapshotsSaved.WithLabelValues(string(scope), "ok").Inc()

	logger.Info().
		Str("scope", string(scope)).
		Int("keywords", len(groups)).
		Dur("duration", time.Since(start)).
		Msg("Snapshot replaced")

	return nil
}

func (r *Runner) curateKeyword(ctx context.Context, scope domain.Scope, seed domain.KeywordSeed, now time.Time, global *DedupSet, logger *zerolog.Logger) []domain.NewsItem {
	pool := r.pools.Build(ctx, seed.News, PoolOptions{
		Scope:             scope,
		Keyword:           seed.Keyword,
		Target:            r.cfg.PoolTarget,
		BatchSize:         r.cfg.RefillBatchSize,
		MaxRefillAttempts: r.cfg.MaxRefillAttempts,
		ZeroYieldLimit:    r.cfg.ZeroYieldLimit,
		Workers:           r.cfg.NormalizeWorkers,
		Normalize: NormalizeOptions{
			Now:             now,
			Location:        r.cfg.Location(),
			MaxAgeDays:      r.cfg.MaxAgeDays,
			MinContentChars: r.cfg.MinContentChars,
			MaxContentChars: r.cfg.MaxContentChars,
		},
	})

	picked := Pick(pool, r.cfg.ResultLimit, global)

	observability.PicksSelected.WithLabelValues(string(scope)).Add(float64(len(picked)))

	logger.Info().
		Str("scope", string(scope)).
		Str("keyword", seed.Keyword).
		Str("candidates", fmt.Sprintf("%d/%d", len(pool), r.cfg.PoolTarget)).
		Str("picked", fmt.Sprintf("%d/%d", len(picked), r.cfg.ResultLimit)).
		Msg("Keyword curated")

	if len(picked) == 0 {
		observability.KeywordsStarved.WithLabelValues(string(scope)).Inc()

		logger.Warn().
			Str("scope", string(scope)).
			Str("keyword", seed.Keyword).
			Msg("Keyword ended run with zero picks")
	}

	items := make([]domain.NewsItem, 0, len(picked))

	for _, c := range picked {
		items = append(items, domain.NewsItem{
			Title:         c.Title,
			Summary:       c.Summary,
			Content:       c.Content,
			Link:          c.Link,
			ImageURL:      c.ImageURL,
			PublishedAt:   c.PublishedAtText(),
			NeedsImageGen: c.NeedsImageGen,
		})
	}

	return items
}

// dateOf truncates a timestamp to its calendar day, which keys the snapshot.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// padSeeds truncates or pads the keyword list so every run produces exactly
// limit ranks.
func padSeeds(seeds []domain.KeywordSeed, limit int) []domain.KeywordSeed {
	if len(seeds) > limit {
		seeds = seeds[:limit]
	}

	for len(seeds) < limit {
		seeds = append(seeds, domain.KeywordSeed{
			Keyword: placeholderKeyword,
			Reason:  placeholderReason,
		})
	}

	return seeds
}
