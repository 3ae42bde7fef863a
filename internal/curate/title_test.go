package curate

import (
	"strings"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "wire tag prefix",
			input: "[속보] 삼성전자 2분기 영업이익 10조 돌파",
			want:  "삼성전자 2분기 영업이익 10조 돌파",
		},
		{
			name:  "parenthesized tag",
			input: "(종합) 코스피 급등 마감",
			want:  "코스피 급등 마감",
		},
		{
			name:  "ordinal prefix",
			input: "1. Fed holds rates steady",
			want:  "fed holds rates steady",
		},
		{
			name:  "outlet suffix em dash",
			input: "Samsung shares surge on earnings — Reuters",
			want:  "samsung shares surge on earnings",
		},
		{
			name:  "outlet suffix hyphen",
			input: "Samsung shares surge on earnings - Bloomberg",
			want:  "samsung shares surge on earnings",
		},
		{
			name:  "stacked tags need multiple passes",
			input: "[단독] (종합) 환율 1400원 돌파 - 연합뉴스",
			want:  "환율 1400원 돌파",
		},
		{
			name:  "whitespace collapse and lowercase",
			input: "  Fed   Holds\tRates  ",
			want:  "fed holds rates",
		},
		{
			name:  "long dash tail kept",
			input: "Inflation - what the latest CPI print means for rate cuts",
			want:  "inflation - what the latest cpi print means for rate cuts",
		},
		{
			name:  "empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle_SameStoryDifferentOutlets(t *testing.T) {
	a := NormalizeTitle("Samsung shares surge on earnings — Reuters")
	b := NormalizeTitle("Samsung shares surge on earnings - Bloomberg")

	if a != b {
		t.Errorf("outlet variants should share a key: %q vs %q", a, b)
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"[속보] 삼성전자 2분기 영업이익 10조 돌파",
		"Samsung shares surge on earnings — Reuters",
		"(1) [단독] 환율 급등 - 연합뉴스",
		strings.Repeat("아주 긴 제목 ", 40),
		"plain headline with no decorations at all",
	}

	for _, input := range inputs {
		once := NormalizeTitle(input)
		twice := NormalizeTitle(once)

		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: %q -> %q", input, once, twice)
		}
	}
}

func TestNormalizeTitle_CapsLength(t *testing.T) {
	long := strings.Repeat("x", 500)

	if got := NormalizeTitle(long); len([]rune(got)) > 160 {
		t.Errorf("key length = %d runes, want <= 160", len([]rune(got)))
	}
}
