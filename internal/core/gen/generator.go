// Package gen talks to the LLM that proposes trend keywords and news
// candidates for a market scope.
package gen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/finbrief/trend-curator/internal/core/domain"
	"github.com/finbrief/trend-curator/internal/platform/observability"
)

// ErrEmptyResponse indicates the model returned no usable content.
var ErrEmptyResponse = errors.New("empty model response")

const (
	rateLimiterBurst = 5

	maxKeywordRunes = 7
	maxReasonRunes  = 2000
	maxTitleRunes   = 300
	maxSummaryRunes = 1000
	maxLinkRunes    = 1000

	// Exclusion lists longer than this stop helping the model and start
	// blowing up the prompt.
	maxExcludeURLs = 80

	kindSeed   = "seed"
	kindRefill = "refill"

	statusOK    = "ok"
	statusError = "error"
)

// chatCompleter is the slice of the OpenAI client we use.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	chat        chatCompleter
	model       string
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func New(apiKey, model string, rps int, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		chat:        openai.NewClient(apiKey),
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
		logger:      logger,
	}
}

type seedEnvelope struct {
	Items []struct {
		Keyword string                `json:"keyword"`
		Reason  string                `json:"reason"`
		News    []domain.RawCandidate `json:"news"`
	} `json:"items"`
}

type refillEnvelope struct {
	News []domain.RawCandidate `json:"news"`
}

// GenerateSeed asks the model for today's trend keywords with an initial
// batch of news candidates per keyword.
func (c *Client) GenerateSeed(ctx context.Context, scope domain.Scope, now time.Time, keywordLimit, newsPerKeyword, maxAgeDays int) ([]domain.KeywordSeed, error) {
	prompt := seedPrompt(scope, now, keywordLimit, newsPerKeyword, maxAgeDays)

	content, err := c.complete(ctx, kindSeed, prompt)
	if err != nil {
		return nil, err
	}

	var envelope seedEnvelope
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &envelope); err != nil {
		return nil, fmt.Errorf("decode seed response: %w", err)
	}

	seeds := make([]domain.KeywordSeed, 0, len(envelope.Items))

	for _, item := range envelope.Items {
		keyword := sanitizeKeyword(item.Keyword)
		if keyword == "" {
			continue
		}

		seeds = append(seeds, domain.KeywordSeed{
			Keyword: keyword,
			Reason:  truncateRunes(strings.TrimSpace(item.Reason), maxReasonRunes),
			News:    sanitizeCandidates(item.News),
		})
	}

	return seeds, nil
}

// RefillKeyword asks for more candidates for one keyword, excluding URLs the
// caller has already seen.
func (c *Client) RefillKeyword(ctx context.Context, scope domain.Scope, keyword string, excludeURLs []string, batchSize, maxAgeDays int) ([]domain.RawCandidate, error) {
	if len(excludeURLs) > maxExcludeURLs {
		excludeURLs = excludeURLs[len(excludeURLs)-maxExcludeURLs:]
	}

	prompt := refillPrompt(scope, keyword, excludeURLs, batchSize, maxAgeDays)

	content, err := c.complete(ctx, kindRefill, prompt)
	if err != nil {
		return nil, err
	}

	var envelope refillEnvelope
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &envelope); err != nil {
		return nil, fmt.Errorf("decode refill response: %w", err)
	}

	return sanitizeCandidates(envelope.News), nil
}

func (c *Client) complete(ctx context.Context, kind, prompt string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	start := time.Now()

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	observability.GeneratorRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.GeneratorRequests.WithLabelValues(kind, statusError).Inc()

		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		observability.GeneratorRequests.WithLabelValues(kind, statusError).Inc()

		return "", ErrEmptyResponse
	}

	observability.GeneratorRequests.WithLabelValues(kind, statusOK).Inc()

	c.logger.Debug().
		Str("kind", kind).
		Dur("duration", time.Since(start)).
		Msg("Generator request completed")

	return resp.Choices[0].Message.Content, nil
}

func sanitizeCandidates(raws []domain.RawCandidate) []domain.RawCandidate {
	out := make([]domain.RawCandidate, 0, len(raws))

	for _, raw := range raws {
		link := strings.TrimSpace(raw.Link)
		if link == "" || len(link) > maxLinkRunes {
			continue
		}

		out = append(out, domain.RawCandidate{
			Title:       truncateRunes(strings.TrimSpace(raw.Title), maxTitleRunes),
			Summary:     truncateRunes(strings.TrimSpace(raw.Summary), maxSummaryRunes),
			Link:        link,
			ImageURL:    truncateRunes(strings.TrimSpace(raw.ImageURL), maxLinkRunes),
			PublishedAt: strings.TrimSpace(raw.PublishedAt),
		})
	}

	return out
}

// sanitizeKeyword collapses whitespace and caps the keyword at the display
// width the product allows.
func sanitizeKeyword(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	return truncateRunes(s, maxKeywordRunes)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
