package generator

import (
	"context"
	"encoding/json"
	"strings"
)

// MockLLM is an offline stand-in used by mock mode; it never calls a provider.
type MockLLM struct {
	Label string
}

func (m MockLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if prompt.JSON {
		return mockReview(prompt.User), nil
	}
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(m.Label)
	sb.WriteString(" mock]\n\n")
	sb.WriteString("아래 요청을 바탕으로 작성된 예시 응답입니다.\n\n")
	sb.WriteString(prompt.User)
	return sb.String(), nil
}

// mockReview quotes the first line of the reviewed text so span checks pass.
func mockReview(user string) string {
	text := user
	if i := strings.Index(text, "\n\n"); i >= 0 {
		text = text[i+2:]
	}
	quote := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	report := ReviewReport{
		OverallScore:   70,
		OverallComment: "mock review",
		RevisedText:    text,
		Strengths:      []Strength{{Text: quote, Comment: "mock"}},
		Improvements:   []Improvement{},
		Additions:      []Addition{},
		AppealPoints:   []AppealPoint{},
		Warnings:       []Warning{},
	}
	b, _ := json.Marshal(report)
	return string(b)
}
