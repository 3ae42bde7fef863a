package gen

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"items": []}`,
			want:  `{"items": []}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"items\": []}\n```",
			want:  `{"items": []}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"news\": []}\n```",
			want:  `{"news": []}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is the result:\n{\"news\": [{\"title\": \"a\"}]}\nHope this helps!",
			want:  `{"news": [{"title": "a"}]}`,
		},
		{
			name:  "nested braces",
			input: `prefix {"a": {"b": 1}} suffix`,
			want:  `{"a": {"b": 1}}`,
		},
		{
			name:  "no json at all",
			input: "sorry, I cannot do that",
			want:  "{}",
		},
		{
			name:  "empty input",
			input: "",
			want:  "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.input); got != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
