package curate

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// Container selectors that Korean and western news CMSes commonly use for
// the article body, tried before the semantic <article>/<main> elements.
var articleBodySelectors = []string{
	"#articleBody",
	"#article_body",
	"#newsct_article",
	"#content",
	"#contents",
	".article-body",
	".articleBody",
	".news_body",
	".newsBody",
	".story-body",
	".entry-content",
	".post-content",
	".post_body",
}

// A body shorter than this from a structural selector is probably chrome,
// not the article; keep looking.
const minSelectorTextChars = 200

var strippedElements = "script, style, noscript, header, footer, aside, nav"

// ExtractArticleText pulls the readable article body out of a page. Known
// CMS containers are tried first, then the semantic elements, then
// readability extraction, then a bare concatenation of all paragraphs.
func ExtractArticleText(body []byte, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	return extractFromDoc(doc, body, pageURL)
}

// ExtractArticleTextFromDoc is ExtractArticleText for an already parsed
// document. rawBody feeds the readability fallback.
func ExtractArticleTextFromDoc(doc *goquery.Document, rawBody []byte, pageURL string) string {
	return extractFromDoc(doc, rawBody, pageURL)
}

func extractFromDoc(doc *goquery.Document, rawBody []byte, pageURL string) string {
	cleaned := goquery.CloneDocument(doc)
	cleaned.Find(strippedElements).Remove()

	for _, sel := range articleBodySelectors {
		node := cleaned.Find(sel).First()
		if node.Length() == 0 {
			continue
		}

		text := paragraphText(node)
		if text == "" {
			text = cleanText(node.Text())
		}

		if len(text) >= minSelectorTextChars {
			return text
		}
	}

	for _, sel := range []string{"article", "main"} {
		node := cleaned.Find(sel).First()
		if node.Length() == 0 {
			continue
		}

		if text := paragraphText(node); len(text) >= minSelectorTextChars {
			return text
		}
	}

	if text := readabilityText(rawBody, pageURL); text != "" {
		return text
	}

	return paragraphText(cleaned.Selection)
}

func readabilityText(rawBody []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(rawBody), u)
	if err != nil {
		return ""
	}

	return cleanText(article.TextContent)
}

func paragraphText(sel *goquery.Selection) string {
	var parts []string

	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return cleanText(strings.Join(parts, " "))
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsFeedDocument reports whether the body is an RSS/Atom/JSON feed. Feed
// URLs occasionally slip through the generator disguised as article links.
func IsFeedDocument(body []byte) bool {
	head := body
	if len(head) > 2048 {
		head = head[:2048]
	}

	lowered := strings.ToLower(string(head))
	if !strings.Contains(lowered, "<rss") && !strings.Contains(lowered, "<feed") && !strings.Contains(lowered, `"version":"https://jsonfeed.org`) {
		return false
	}

	_, err := gofeed.NewParser().Parse(bytes.NewReader(body))

	return err == nil
}

// TruncateContent caps article text at max runes.
func TruncateContent(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max])
}
