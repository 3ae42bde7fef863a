package curate

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/finbrief/trend-curator/internal/core/domain"
	"github.com/finbrief/trend-curator/internal/platform/observability"
)

const dropDuplicate = "duplicate"

// Refiller requests additional candidates for a keyword.
type Refiller interface {
	RefillKeyword(ctx context.Context, scope domain.Scope, keyword string, excludeURLs []string, batchSize, maxAgeDays int) ([]domain.RawCandidate, error)
}

// PoolOptions sizes one keyword's candidate pool.
type PoolOptions struct {
	Scope             domain.Scope
	Keyword           string
	Target            int
	BatchSize         int
	MaxRefillAttempts int
	ZeroYieldLimit    int
	Workers           int
	Normalize         NormalizeOptions
}

// PoolBuilder collects a deduplicated pool of validated candidates for one
// keyword, asking the generator for refills until the pool is full or the
// generator stops yielding anything new.
type PoolBuilder struct {
	normalizer *Normalizer
	refiller   Refiller
	logger     *zerolog.Logger
}

func NewPoolBuilder(normalizer *Normalizer, refiller Refiller, logger *zerolog.Logger) *PoolBuilder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &PoolBuilder{
		normalizer: normalizer,
		refiller:   refiller,
		logger:     logger,
	}
}

// Build normalizes the seed batch, then refills until the pool reaches its
// target. The refill loop stops early after ZeroYieldLimit consecutive
// attempts that contributed nothing, which is the signal the generator has
// run dry for this keyword.
func (b *PoolBuilder) Build(ctx context.Context, seed []domain.RawCandidate, opts PoolOptions) []domain.Candidate {
	seen := NewDedupSet()
	pool := make([]domain.Candidate, 0, opts.Target)

	b.processBatch(ctx, seed, seen, &pool, opts)

	attempts := 0
	zeroStreak := 0

	for len(pool) < opts.Target && attempts < opts.MaxRefillAttempts {
		if ctx.Err() != nil {
			break
		}

		attempts++

		observability.RefillAttempts.WithLabelValues(string(opts.Scope)).Inc()

		raws, err := b.refiller.RefillKeyword(ctx, opts.Scope, opts.Keyword, seen.URLs(), opts.BatchSize, opts.Normalize.MaxAgeDays)
		if err != nil {
			b.logger.Warn().Err(err).
				Str("keyword", opts.Keyword).
				Int("attempt", attempts).
				Msg("Refill request failed")

			zeroStreak++
			if zeroStreak >= opts.ZeroYieldLimit {
				break
			}

			continue
		}

		added := b.processBatch(ctx, raws, seen, &pool, opts)

		b.logger.Debug().
			Str("keyword", opts.Keyword).
			Int("attempt", attempts).
			Int("added", added).
			Int("pool", len(pool)).
			Msg("Refill attempt completed")

		if added == 0 {
			zeroStreak++
			if zeroStreak >= opts.ZeroYieldLimit {
				break
			}
		} else {
			zeroStreak = 0
		}
	}

	return pool
}

// processBatch normalizes raws on a bounded worker pool and funnels the
// survivors through a single collector that owns the pool slice. Returns how
// many candidates were accepted.
func (b *PoolBuilder) processBatch(ctx context.Context, raws []domain.RawCandidate, seen *DedupSet, pool *[]domain.Candidate, opts PoolOptions) int {
	if len(raws) == 0 {
		return 0
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	scope := string(opts.Scope)

	results := make(chan *domain.Candidate)
	sem := make(chan struct{}, workers)

	go func() {
		var wg sync.WaitGroup

		for _, raw := range raws {
			if ctx.Err() != nil {
				break
			}

			observability.CandidatesConsidered.WithLabelValues(scope).Inc()

			wg.Add(1)

			sem <- struct{}{}

			go func(raw domain.RawCandidate) {
				defer wg.Done()
				defer func() { <-sem }()

				results <- b.normalizer.Normalize(ctx, raw, opts.Normalize)
			}(raw)
		}

		wg.Wait()
		close(results)
	}()

	added := 0

	for cand := range results {
		if cand == nil {
			continue
		}

		if len(*pool) >= opts.Target {
			continue
		}

		if !seen.TryAdd(cand.Link, cand.NormalizedTitle) {
			observability.CandidateDrops.WithLabelValues(dropDuplicate).Inc()

			continue
		}

		observability.CandidatesAccepted.WithLabelValues(scope).Inc()

		*pool = append(*pool, *cand)
		added++
	}

	return added
}
