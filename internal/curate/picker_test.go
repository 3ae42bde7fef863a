package curate

import (
	"fmt"
	"testing"
	"time"

	"github.com/finbrief/trend-curator/internal/core/domain"
)

func candidateAt(n int, published time.Time, realImage bool) domain.Candidate {
	c := domain.Candidate{
		Title:           fmt.Sprintf("headline %d", n),
		Link:            fmt.Sprintf("https://news.example/a/%06d", n),
		PublishedAt:     published,
		NormalizedTitle: fmt.Sprintf("headline %d", n),
	}

	if realImage {
		c.ImageURL = fmt.Sprintf("https://img.example/%d.jpg", n)
	} else {
		c.ImageURL = "https://www.google.com/s2/favicons?domain=news.example&sz=128"
		c.NeedsImageGen = true
	}

	return c
}

func TestPick_NewestFirstPreferringImages(t *testing.T) {
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	pool := []domain.Candidate{
		candidateAt(1, base.Add(1*time.Hour), false), // newest but no image
		candidateAt(2, base, true),
		candidateAt(3, base.Add(-1*time.Hour), true),
		candidateAt(4, base.Add(-2*time.Hour), true),
	}

	picked := Pick(pool, 2, NewDedupSet())

	if len(picked) != 2 {
		t.Fatalf("picked %d, want 2", len(picked))
	}

	// Image-bearing candidates win even over a newer imageless one.
	if picked[0].Link != pool[1].Link || picked[1].Link != pool[2].Link {
		t.Errorf("picked [%s, %s], want the two newest with images", picked[0].Link, picked[1].Link)
	}
}

func TestPick_FillsFromImagelessWhenShort(t *testing.T) {
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	pool := []domain.Candidate{
		candidateAt(1, base, true),
		candidateAt(2, base.Add(-1*time.Hour), false),
		candidateAt(3, base.Add(-2*time.Hour), false),
	}

	picked := Pick(pool, 3, NewDedupSet())

	if len(picked) != 3 {
		t.Fatalf("picked %d, want 3", len(picked))
	}

	if picked[0].Link != pool[0].Link {
		t.Errorf("first pick = %s, want the image-bearing candidate", picked[0].Link)
	}
}

func TestPick_GlobalDedupAcrossKeywords(t *testing.T) {
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	global := NewDedupSet()

	shared := candidateAt(1, base, true)

	poolA := []domain.Candidate{shared, candidateAt(2, base, true)}
	poolB := []domain.Candidate{shared, candidateAt(3, base, true)}

	pickedA := Pick(poolA, 2, global)
	pickedB := Pick(poolB, 2, global)

	if len(pickedA) != 2 {
		t.Fatalf("first keyword picked %d, want 2", len(pickedA))
	}

	for _, c := range pickedB {
		if c.Link == shared.Link {
			t.Errorf("story %s picked under two keywords", c.Link)
		}
	}

	if len(pickedB) != 1 {
		t.Errorf("second keyword picked %d, want 1 (shared story excluded)", len(pickedB))
	}
}

func TestPick_EmptyPool(t *testing.T) {
	if got := Pick(nil, 5, NewDedupSet()); len(got) != 0 {
		t.Errorf("Pick(nil) = %v, want empty", got)
	}
}

func TestFinalDedupe(t *testing.T) {
	groups := []domain.KeywordGroup{
		{
			Keyword: "금리",
			Items: []domain.NewsItem{
				{Title: "Fed cuts rates — Reuters", Link: "https://news.example/a/1"},
				{Title: "Markets rally", Link: "https://news.example/a/2"},
			},
		},
		{
			Keyword: "증시",
			Items: []domain.NewsItem{
				// Same URL as the first group.
				{Title: "Different headline", Link: "https://news.example/a/1"},
				// Same story from another outlet.
				{Title: "Fed cuts rates - Bloomberg", Link: "https://news.example/b/9"},
				{Title: "Fresh story", Link: "https://news.example/c/3"},
			},
		},
	}

	out := FinalDedupe(groups)

	if len(out[0].Items) != 2 {
		t.Errorf("first group items = %d, want 2", len(out[0].Items))
	}

	if len(out[1].Items) != 1 {
		t.Fatalf("second group items = %d, want 1", len(out[1].Items))
	}

	if out[1].Items[0].Link != "https://news.example/c/3" {
		t.Errorf("surviving item = %s, want the fresh story", out[1].Items[0].Link)
	}
}
