package curate

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// Leading wire-service tags ("[속보]", "(종합)", "<단독>") and list
	// ordinals ("1. ", "2) ").
	titleTrimPrefixRe = regexp.MustCompile(`^\s*(\[[^\]]+\]|\([^)]+\)|<[^>]+>|[0-9]+[.)\]]\s*)\s*`)

	// Trailing outlet or byline, e.g. "- 조선일보", "— Reuters". Anything
	// longer than 25 runes after the dash is assumed to be part of the
	// headline itself.
	titleTrimSuffixRe = regexp.MustCompile(`\s*[-–—]\s*[^-–—]{1,25}\s*$`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

const maxTitleKeyRunes = 160

// NormalizeTitle produces the dedupe key for a headline: tags and outlet
// suffixes stripped, whitespace collapsed, lowercased, capped at 160 runes.
// The transform runs to a fixed point, so the function is idempotent and a
// key can safely be normalized again. Each changed pass shortens the string,
// so the loop terminates.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(norm.NFKC.String(title))
	if t == "" {
		return ""
	}

	for {
		next := normalizeOnce(t)
		if next == t {
			return t
		}

		t = next
	}
}

func normalizeOnce(t string) string {
	t = titleTrimPrefixRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)

	t = titleTrimSuffixRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)

	t = whitespaceRe.ReplaceAllString(t, " ")
	t = strings.ToLower(strings.TrimSpace(t))

	runes := []rune(t)
	if len(runes) > maxTitleKeyRunes {
		t = strings.TrimSpace(string(runes[:maxTitleKeyRunes]))
	}

	return t
}
