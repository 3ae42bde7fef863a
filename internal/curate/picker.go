package curate

import (
	"sort"

	"github.com/finbrief/trend-curator/internal/core/domain"
)

// Pick selects up to limit candidates from a keyword's pool, newest first,
// preferring candidates that carry a real article image. Every pick is
// claimed in the run-global dedup set, so the same story never appears under
// two keywords.
func Pick(pool []domain.Candidate, limit int, global *DedupSet) []domain.Candidate {
	if len(pool) == 0 || limit <= 0 {
		return nil
	}

	sorted := make([]domain.Candidate, len(pool))
	copy(sorted, pool)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	withImage := make([]domain.Candidate, 0, len(sorted))
	withoutImage := make([]domain.Candidate, 0, len(sorted))

	for _, c := range sorted {
		if c.HasRealImage() {
			withImage = append(withImage, c)
		} else {
			withoutImage = append(withoutImage, c)
		}
	}

	picked := takeUnique(withImage, limit, global)
	if len(picked) < limit {
		picked = append(picked, takeUnique(withoutImage, limit-len(picked), global)...)
	}

	return picked
}

func takeUnique(src []domain.Candidate, need int, global *DedupSet) []domain.Candidate {
	picked := make([]domain.Candidate, 0, need)

	for _, c := range src {
		if need <= 0 {
			break
		}

		if !global.TryAdd(c.Link, c.NormalizedTitle) {
			continue
		}

		picked = append(picked, c)
		need--
	}

	return picked
}

// FinalDedupe is a last defensive pass over the assembled picks of one
// scope: anything that slipped past the per-keyword and global sets is
// removed here before persisting.
func FinalDedupe(groups []domain.KeywordGroup) []domain.KeywordGroup {
	seenURLs := make(map[string]struct{})
	seenTitles := make(map[string]struct{})

	out := make([]domain.KeywordGroup, 0, len(groups))

	for _, g := range groups {
		items := make([]domain.NewsItem, 0, len(g.Items))

		for _, item := range g.Items {
			if _, ok := seenURLs[item.Link]; ok {
				continue
			}

			key := NormalizeTitle(item.Title)
			if key != "" {
				if _, ok := seenTitles[key]; ok {
					continue
				}

				seenTitles[key] = struct{}{}
			}

			seenURLs[item.Link] = struct{}{}

			items = append(items, item)
		}

		g.Items = items
		out = append(out, g)
	}

	return out
}
