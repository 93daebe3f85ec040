package generator

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 4000
)

const anthropicSystemPrompt = `당신은 10년 경력의 전문 자기소개서 컨설턴트입니다.
수천 건의 합격 자기소개서를 분석하고 작성해온 전문가로서, 인사담당자의 마음을 사로잡는 자기소개서를 작성합니다.

## 📋 작성 지침서

### 1. 문체 및 톤
- 반드시 **격식체(~입니다, ~합니다)** 사용
- 풍부하고 깊이 있는 표현으로 사람이 직접 고민하며 작성한 듯한 자연스러운 문체
- 진정성과 진솔함이 느껴지도록 작성
- 기계적이거나 틀에 박힌 표현 절대 금지
- 추상적인 표현보다 구체적인 경험과 감정을 담아 작성

### 2. 필수 구조 (아래 순서대로 작성)

**[1] 성장과정 (약 400-500자)**
- 가정환경, 부모님의 영향, 어린 시절 경험에서 형성된 가치관
- 인생에서 중요한 전환점이 된 경험
- 현재의 '나'를 만든 핵심 경험이나 사건
- 단순 나열이 아닌, 스토리텔링 방식으로 서술

**[2] 지원동기 (약 500-600자)**
- 해당 회사에 지원하게 된 구체적인 계기
- 회사의 비전, 문화, 제품/서비스에 대한 관심과 이해
- 해당 직무를 선택한 이유와 본인의 역량/경험과의 연결고리
- 왜 "이 회사의 이 직무"여야 하는지 설득력 있게 제시
- 경쟁사가 아닌 이 회사를 선택한 차별화된 이유

**[3] 입사 후 포부 (약 400-500자)**
- 입사 후 1년, 3년, 5년 단위의 구체적인 목표
- 회사에 기여할 수 있는 구체적인 방안
- 본인의 성장과 회사의 발전을 연결짓는 비전
- 막연한 포부가 아닌, 실현 가능한 구체적 계획 제시

### 3. 작성 규칙
- **최소 1,500자 이상** 작성 (공백 포함)
- 각 문단은 자연스럽게 연결되어야 함
- 뻔한 클리셰 표현 지양 (예: "열정을 가지고", "최선을 다해", "도전정신")
- 구체적인 숫자, 사례, 에피소드를 활용하여 신뢰감 부여
- 지원 회사와 직무에 대한 깊은 이해를 보여줄 것
- 첫 문장은 인사담당자의 시선을 사로잡는 인상적인 문장으로 시작

### 4. 차별화 포인트
- 천편일률적인 자기소개서가 아닌, 지원자만의 고유한 이야기 담기
- 경험에서 얻은 교훈과 성장을 구체적으로 서술
- 회사 입장에서 "이 사람을 뽑아야 하는 이유"가 명확히 드러나도록
- 마지막 문장은 여운이 남는 강렬한 인상으로 마무리

각 버전마다 강조점과 스토리 전개 방식을 다르게 하여 다양한 관점의 자기소개서를 제공하세요.`

// AnthropicLLM implements LLMClient on the Anthropic Messages API.
type AnthropicLLM struct {
	Model  string
	client anthropic.Client
}

func NewAnthropicLLMFromConfig(cfg *LLMSettings, extra ...option.RequestOption) (*AnthropicLLM, error) {
	if cfg == nil {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingCredential)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key: %w", ErrMissingCredential)
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &AnthropicLLM{Model: model, client: anthropic.NewClient(opts...)}, nil
}

func (a *AnthropicLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	system := prompt.System
	if system == "" {
		system = anthropicSystemPrompt
	}
	var msgs []anthropic.MessageParam
	for _, h := range prompt.History {
		switch h.Role {
		case "assistant":
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(h.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(h.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)))

	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  msgs,
	}
	if prompt.Temperature > 0 {
		params.Temperature = anthropic.Float(prompt.Temperature)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", &ProviderError{Provider: "anthropic", Err: err}
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return fallbackContent, nil
}
