package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records the last request body and answers with a canned payload.
func fakeProvider(t *testing.T, path string, status int, answer string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(answer))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

const openAIAnswer = `{
  "id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "작성된 자기소개서"}}]
}`

func TestOpenAILLM_Complete(t *testing.T) {
	srv, got := fakeProvider(t, "/chat/completions", http.StatusOK, openAIAnswer)
	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "sk-test", BaseURL: srv.URL},
		openaiopt.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	out, err := llm.Complete(context.Background(), BuildReviewPrompt("본문"))
	require.NoError(t, err)
	assert.Equal(t, "작성된 자기소개서", out)

	body := *got
	assert.Equal(t, "gpt-4o", body["model"])
	assert.Equal(t, 0.3, body["temperature"])
	format, _ := body["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	msgs, _ := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAILLM_DefaultsAndEmptyAnswer(t *testing.T) {
	empty := `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`
	srv, got := fakeProvider(t, "/chat/completions", http.StatusOK, empty)
	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-5.2"},
		openaiopt.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	out, err := llm.Complete(context.Background(), BuildGeneratePrompt(Applicant{Name: "a"}))
	require.NoError(t, err)
	assert.Equal(t, fallbackContent, out)

	body := *got
	assert.Equal(t, "gpt-5.2", body["model"])
	assert.Equal(t, defaultOpenAITemp, body["temperature"])
	assert.NotContains(t, body, "response_format")
	msgs, _ := body["messages"].([]any)
	require.NotEmpty(t, msgs)
	assert.Equal(t, openAISystemPrompt, msgs[0].(map[string]any)["content"])
}

func TestOpenAILLM_ProviderError(t *testing.T) {
	srv, _ := fakeProvider(t, "/chat/completions", http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`)
	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "sk-test", BaseURL: srv.URL},
		openaiopt.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = llm.Complete(context.Background(), Prompt{User: "x"})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "openai", pe.Provider)
}

const anthropicAnswer = `{
  "id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-20250514",
  "content": [{"type": "text", "text": "Claude 자기소개서"}],
  "stop_reason": "end_turn", "usage": {"input_tokens": 10, "output_tokens": 20}
}`

func TestAnthropicLLM_Complete(t *testing.T) {
	srv, got := fakeProvider(t, "/v1/messages", http.StatusOK, anthropicAnswer)
	llm, err := NewAnthropicLLMFromConfig(&LLMSettings{APIKey: "sk-ant", BaseURL: srv.URL},
		anthropicopt.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	out, err := llm.Complete(context.Background(), BuildVariationPrompt("원본", 2))
	require.NoError(t, err)
	assert.Equal(t, "Claude 자기소개서", out)

	body := *got
	assert.Equal(t, defaultAnthropicModel, body["model"])
	assert.Equal(t, float64(4000), body["max_tokens"])
	assert.Equal(t, 0.85, body["temperature"])
	system, _ := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Contains(t, system[0].(map[string]any)["text"], "원본")
}

func TestAnthropicLLM_NoTextBlock(t *testing.T) {
	answer := `{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`
	srv, got := fakeProvider(t, "/v1/messages", http.StatusOK, answer)
	llm, err := NewAnthropicLLMFromConfig(&LLMSettings{APIKey: "sk-ant", BaseURL: srv.URL},
		anthropicopt.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	out, err := llm.Complete(context.Background(), BuildGeneratePrompt(Applicant{}))
	require.NoError(t, err)
	assert.Equal(t, fallbackContent, out)
	assert.NotContains(t, *got, "temperature", "zero temperature is left to the provider default")
}

func TestAnthropicLLM_ProviderError(t *testing.T) {
	srv, _ := fakeProvider(t, "/v1/messages", http.StatusBadRequest,
		`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	llm, err := NewAnthropicLLMFromConfig(&LLMSettings{APIKey: "sk-ant", BaseURL: srv.URL},
		anthropicopt.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = llm.Complete(context.Background(), Prompt{User: "x"})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "anthropic", pe.Provider)
}

func TestConstructors_MissingCredential(t *testing.T) {
	_, err := NewOpenAILLMFromConfig(&LLMSettings{})
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = NewOpenAILLMFromConfig(nil)
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = NewAnthropicLLMFromConfig(&LLMSettings{Model: "claude"})
	assert.ErrorIs(t, err, ErrMissingCredential)
}
