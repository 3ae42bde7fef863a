package curate

import "sync"

// DedupSet tracks canonical URLs and normalized title keys that have already
// been claimed. The check-and-insert is atomic over both keys, so concurrent
// callers cannot both claim the same story.
type DedupSet struct {
	mu     sync.Mutex
	urls   map[string]struct{}
	titles map[string]struct{}
}

func NewDedupSet() *DedupSet {
	return &DedupSet{
		urls:   make(map[string]struct{}),
		titles: make(map[string]struct{}),
	}
}

// TryAdd claims the URL and title key. It returns false without claiming
// anything if either is already taken. An empty title key dedupes on URL
// alone.
func (d *DedupSet) TryAdd(url, titleKey string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.urls[url]; ok {
		return false
	}

	if titleKey != "" {
		if _, ok := d.titles[titleKey]; ok {
			return false
		}
	}

	d.urls[url] = struct{}{}

	if titleKey != "" {
		d.titles[titleKey] = struct{}{}
	}

	return true
}

// Seen reports whether the URL or title key is already claimed.
func (d *DedupSet) Seen(url, titleKey string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.urls[url]; ok {
		return true
	}

	if titleKey != "" {
		if _, ok := d.titles[titleKey]; ok {
			return true
		}
	}

	return false
}

// URLs returns a snapshot of all claimed URLs.
func (d *DedupSet) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.urls))
	for u := range d.urls {
		out = append(out, u)
	}

	return out
}
