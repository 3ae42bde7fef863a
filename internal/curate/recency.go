package curate

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

var (
	dateTimeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2})`)
	bareDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Meta tags consulted for a publish timestamp, in priority order.
var publishedMetaSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[property="og:published_time"]`,
	`meta[property="article:modified_time"]`,
	`meta[property="og:updated_time"]`,
	`meta[name="pubdate"]`,
	`meta[name="publishdate"]`,
	`meta[name="timestamp"]`,
	`meta[name="date"]`,
}

const maxTimeElements = 5

// ParsePublishedAt parses a publish timestamp in whatever shape the
// generator or a news page produced. Naive timestamps are interpreted in
// loc; a bare date lands at noon so the day-granular window still applies.
func ParsePublishedAt(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := dateTimeRe.FindStringSubmatch(s); m != nil {
		if t, err := time.ParseInLocation("2006-01-02 15:04", m[1]+" "+m[2], loc); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return t.In(loc), true
	}

	if m := bareDateRe.FindString(s); m != "" {
		if t, err := time.ParseInLocation("2006-01-02", m, loc); err == nil {
			return t.Add(12 * time.Hour), true
		}
	}

	return time.Time{}, false
}

// WithinWindow reports whether t falls inside the recency window, counted in
// whole calendar days of t's location. Future-dated articles are rejected.
func WithinWindow(t, now time.Time, maxAgeDays int) bool {
	ty, tm, td := t.Date()
	ny, nm, nd := now.In(t.Location()).Date()

	tDay := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	nDay := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	days := int(nDay.Sub(tDay).Hours() / 24)

	return days >= 0 && days <= maxAgeDays
}

// PublishedFromDoc digs a publish timestamp out of the page itself: known
// meta tags first, then the first few <time> elements.
func PublishedFromDoc(doc *goquery.Document, loc *time.Location) (time.Time, bool) {
	for _, sel := range publishedMetaSelectors {
		content, exists := doc.Find(sel).First().Attr("content")
		if !exists {
			continue
		}

		if t, ok := ParsePublishedAt(content, loc); ok {
			return t, true
		}
	}

	var (
		found time.Time
		ok    bool
	)

	doc.Find("time").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxTimeElements {
			return false
		}

		if attr, exists := s.Attr("datetime"); exists {
			if t, parsed := ParsePublishedAt(attr, loc); parsed {
				found, ok = t, true

				return false
			}
		}

		if t, parsed := ParsePublishedAt(strings.TrimSpace(s.Text()), loc); parsed {
			found, ok = t, true

			return false
		}

		return true
	})

	return found, ok
}
