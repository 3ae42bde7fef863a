package gen

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/finbrief/trend-curator/internal/core/domain"
)

type stubChat struct {
	content    string
	lastPrompt string
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastPrompt = req.Messages[len(req.Messages)-1].Content

	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newStubClient(content string) (*Client, *stubChat) {
	chat := &stubChat{content: content}
	nop := zerolog.Nop()

	return &Client{
		chat:        chat,
		model:       "test-model",
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		logger:      &nop,
	}, chat
}

func TestGenerateSeed_ParsesAndSanitizes(t *testing.T) {
	response := "```json\n" + `{
		"items": [
			{
				"keyword": "  semiconductors  ",
				"reason": "Chip stocks rallied on earnings.",
				"news": [
					{"title": "Chip maker beats estimates", "link": "https://news.example/a/123456", "published_at": "2026-08-27 09:30"},
					{"title": "No link here", "link": ""},
					{"title": "Another story", "link": "https://news.example/b/234567"}
				]
			},
			{"keyword": "", "reason": "dropped", "news": []}
		]
	}` + "\n```"

	client, _ := newStubClient(response)

	seeds, err := client.GenerateSeed(context.Background(), domain.ScopeUS, time.Now(), 3, 15, 4)
	require.NoError(t, err)
	require.Len(t, seeds, 1)

	assert.Equal(t, "semicon", seeds[0].Keyword, "keyword should be capped at 7 runes")
	assert.Len(t, seeds[0].News, 2, "candidate without link should be dropped")
	assert.Equal(t, "https://news.example/a/123456", seeds[0].News[0].Link)
}

func TestRefillKeyword_ExclusionListCapped(t *testing.T) {
	client, chat := newStubClient(`{"news": [{"title": "t", "link": "https://news.example/c/345678"}]}`)

	exclude := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		exclude = append(exclude, fmt.Sprintf("https://used.example/item/%03d", i))
	}

	raws, err := client.RefillKeyword(context.Background(), domain.ScopeKR, "금리", exclude, 25, 4)
	require.NoError(t, err)
	require.Len(t, raws, 1)

	lines := strings.Count(chat.lastPrompt, "https://used.example/")
	assert.Equal(t, maxExcludeURLs, lines, "exclusion list should be capped")
	assert.Contains(t, chat.lastPrompt, exclude[len(exclude)-1], "most recent URLs should be kept")
	assert.NotContains(t, chat.lastPrompt, exclude[0]+"\n", "oldest URLs should be dropped")
}

func TestGenerateSeed_GarbageResponse(t *testing.T) {
	client, _ := newStubClient("sorry, I cannot help with that")

	seeds, err := client.GenerateSeed(context.Background(), domain.ScopeUS, time.Now(), 3, 15, 4)
	require.NoError(t, err)
	assert.Empty(t, seeds)
}

func TestSanitizeKeyword(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  AI  chips  ", "AI chip"},
		{"금리인상우려확산", "금리인상우려확"},
		{"fed", "fed"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeKeyword(tt.input); got != tt.want {
			t.Errorf("sanitizeKeyword(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
