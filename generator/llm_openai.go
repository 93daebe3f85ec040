package generator

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	defaultOpenAIModel     = "gpt-4o"
	defaultOpenAIMaxTokens = 2000
	defaultOpenAITemp      = 0.7
)

const openAISystemPrompt = `당신은 전문 자기소개서 작성 전문가입니다.
사용자의 정보를 바탕으로 설득력 있고, 진정성 있으며, 해당 직무에 최적화된 자기소개서를 작성해주세요.
- 구체적인 경험과 성과를 포함하세요
- 지원 직무와의 연관성을 명확히 하세요
- 자연스럽고 진정성 있는 문체를 사용하세요
- 500-800자 내외로 작성하세요`

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
type OpenAILLM struct {
	Model  string
	client openai.Client
}

// NewOpenAILLMFromConfig builds the client once; extra options are appended
// after the credential and base URL (tests use them to swap the transport).
func NewOpenAILLMFromConfig(cfg *LLMSettings, extra ...option.RequestOption) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, fmt.Errorf("openai: %w", ErrMissingCredential)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key: %w", ErrMissingCredential)
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAILLM{Model: model, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	system := prompt.System
	if system == "" {
		system = openAISystemPrompt
	}
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
	}
	for _, h := range prompt.History {
		switch h.Role {
		case "assistant":
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(h.Content))
		default:
			msgs = append(msgs, openai.UserMessage(h.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}
	temp := prompt.Temperature
	if temp <= 0 {
		temp = defaultOpenAITemp
	}
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.Model),
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
		Temperature:         openai.Float(temp),
	}
	if prompt.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &ProviderError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return fallbackContent, nil
	}
	return resp.Choices[0].Message.Content, nil
}
