package gen

import (
	"fmt"
	"strings"
	"time"

	"github.com/finbrief/trend-curator/internal/core/domain"
)

const systemPrompt = `You are a financial news research assistant with real-time web search.
Return STRICT JSON ONLY. Use double quotes. No trailing commas. No markdown fences. No extra keys or commentary.`

const seedPromptTemplate = `Today is %s (%s, local time).

Find the %d most discussed finance/market trend keywords for the %s right now and, for each, %d recent news articles.

Output a single JSON object:
{"items": [{"keyword": "...", "reason": "...", "news": [{"title": "...", "summary": "...", "link": "...", "image_url": "...", "published_at": "YYYY-MM-DD HH:MM"}]}]}

Rules:
- keyword: at most 7 characters, the short form traders actually use.
- reason: one or two sentences on why it is trending today.
- news links MUST be direct article pages (no portal home pages, section pages or search result pages).
- Only articles published within the last %d days.
- published_at in "YYYY-MM-DD HH:MM" local time; leave "" if unknown.
- image_url: the article's lead image if you know it, otherwise "".
- Never invent URLs.`

const refillPromptTemplate = `Find %d MORE recent news articles about the %s trend keyword "%s".

Output a single JSON object:
{"news": [{"title": "...", "summary": "...", "link": "...", "image_url": "...", "published_at": "YYYY-MM-DD HH:MM"}]}

Rules:
- news links MUST be direct article pages (no portal home pages, section pages or search result pages).
- Only articles published within the last %d days.
- published_at in "YYYY-MM-DD HH:MM" local time; leave "" if unknown.
- Never invent URLs.
- Prefer different outlets and different angles than typical top results.%s`

func scopeLabel(scope domain.Scope) string {
	if scope == domain.ScopeKR {
		return "Korean (KRX) stock market"
	}

	return "US stock market"
}

func seedPrompt(scope domain.Scope, now time.Time, keywordLimit, newsPerKeyword, maxAgeDays int) string {
	return fmt.Sprintf(seedPromptTemplate,
		now.Format("2006-01-02 15:04"),
		scopeLabel(scope),
		keywordLimit,
		scopeLabel(scope),
		newsPerKeyword,
		maxAgeDays,
	)
}

func refillPrompt(scope domain.Scope, keyword string, excludeURLs []string, batchSize, maxAgeDays int) string {
	var exclusion string

	if len(excludeURLs) > 0 {
		var sb strings.Builder

		sb.WriteString("\n\nDo NOT return any of these URLs (already used):\n")

		for _, u := range excludeURLs {
			sb.WriteString("- ")
			sb.WriteString(u)
			sb.WriteString("\n")
		}

		exclusion = strings.TrimRight(sb.String(), "\n")
	}

	return fmt.Sprintf(refillPromptTemplate,
		batchSize,
		scopeLabel(scope),
		keyword,
		maxAgeDays,
		exclusion,
	)
}
