package curate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finbrief/trend-curator/internal/core/domain"
	"github.com/finbrief/trend-curator/internal/core/fetch"
	"github.com/finbrief/trend-curator/internal/platform/config"
)

type fakeGenerator struct {
	seeds   map[domain.Scope][]domain.KeywordSeed
	seedErr map[domain.Scope]error
}

func (f *fakeGenerator) GenerateSeed(_ context.Context, scope domain.Scope, _ time.Time, _, _, _ int) ([]domain.KeywordSeed, error) {
	if err := f.seedErr[scope]; err != nil {
		return nil, err
	}

	return f.seeds[scope], nil
}

func (f *fakeGenerator) RefillKeyword(context.Context, domain.Scope, string, []string, int, int) ([]domain.RawCandidate, error) {
	return nil, nil
}

type fakeStore struct {
	snapshots map[domain.Scope][]domain.KeywordGroup
	err       error
}

func (f *fakeStore) ReplaceSnapshot(_ context.Context, _ time.Time, scope domain.Scope, groups []domain.KeywordGroup) error {
	if f.err != nil {
		return f.err
	}

	if f.snapshots == nil {
		f.snapshots = make(map[domain.Scope][]domain.KeywordGroup)
	}

	f.snapshots[scope] = groups

	return nil
}

func testRunnerConfig() *config.Config {
	return &config.Config{
		Scopes:            []string{"KR", "US"},
		ReferenceTZ:       "Asia/Seoul",
		KeywordLimit:      3,
		ResultLimit:       5,
		PoolTarget:        10,
		RefillBatchSize:   5,
		MaxRefillAttempts: 3,
		ZeroYieldLimit:    1,
		MaxAgeDays:        4,
		MinContentChars:   180,
		MaxContentChars:   6000,
		NormalizeWorkers:  2,
	}
}

func newTestRunner(gen Generator, store SnapshotStore) *Runner {
	f := fetch.New(1000, 2*time.Second, time.Second, 0)
	normalizer := NewNormalizer(NewClassifier(nil), NewCanonicalizer(f), NewImageResolver(f), nil)
	pools := NewPoolBuilder(normalizer, gen, nil)

	return NewRunner(gen, store, pools, testRunnerConfig(), nil)
}

func TestRun_PadsKeywordsToLimit(t *testing.T) {
	gen := &fakeGenerator{seeds: map[domain.Scope][]domain.KeywordSeed{
		domain.ScopeKR: {{Keyword: "금리", Reason: "rate decision week"}},
		domain.ScopeUS: {},
	}}
	store := &fakeStore{}

	if err := newTestRunner(gen, store).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, scope := range []domain.Scope{domain.ScopeKR, domain.ScopeUS} {
		groups := store.snapshots[scope]
		if len(groups) != 3 {
			t.Fatalf("scope %s groups = %d, want 3", scope, len(groups))
		}

		for i, g := range groups {
			if g.Rank != i+1 {
				t.Errorf("scope %s rank = %d, want %d", scope, g.Rank, i+1)
			}
		}
	}

	kr := store.snapshots[domain.ScopeKR]
	if kr[0].Keyword != "금리" {
		t.Errorf("first keyword = %q, want 금리", kr[0].Keyword)
	}

	for _, g := range kr[1:] {
		if g.Keyword != "N/A" || g.Reason != "no data" {
			t.Errorf("padded group = %q/%q, want N/A placeholder", g.Keyword, g.Reason)
		}

		if len(g.Items) != 0 {
			t.Errorf("padded group should have no items, got %d", len(g.Items))
		}
	}
}

func TestRun_ScopeFailureDoesNotStopOthers(t *testing.T) {
	genErr := errors.New("model unavailable")

	gen := &fakeGenerator{
		seeds:   map[domain.Scope][]domain.KeywordSeed{domain.ScopeUS: {{Keyword: "fed"}}},
		seedErr: map[domain.Scope]error{domain.ScopeKR: genErr},
	}
	store := &fakeStore{}

	err := newTestRunner(gen, store).Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error from failed scope")
	}

	if !errors.Is(err, genErr) {
		t.Errorf("Run() error = %v, want wrapped generator error", err)
	}

	if _, ok := store.snapshots[domain.ScopeUS]; !ok {
		t.Error("US snapshot should still be written when KR fails")
	}

	if _, ok := store.snapshots[domain.ScopeKR]; ok {
		t.Error("KR snapshot should not be written on seed failure")
	}
}

func TestRun_StoreFailureSurfaces(t *testing.T) {
	storeErr := errors.New("db down")

	gen := &fakeGenerator{seeds: map[domain.Scope][]domain.KeywordSeed{}}
	store := &fakeStore{err: storeErr}

	err := newTestRunner(gen, store).Run(context.Background())
	if !errors.Is(err, storeErr) {
		t.Errorf("Run() error = %v, want wrapped store error", err)
	}
}
