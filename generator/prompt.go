package generator

import (
	"fmt"
	"strings"
)

// Prompt is the set of messages sent to an LLM. An empty System means the
// adapter's own fixed system prompt.
type Prompt struct {
	System      string
	User        string
	History     []Message
	Temperature float64
	MaxTokens   int
	JSON        bool
}

// Message is an optional prior turn.
type Message struct {
	Role    string
	Content string
}

// BuildGeneratePrompt renders the applicant form into the generation instruction.
func BuildGeneratePrompt(a Applicant) Prompt {
	var sb strings.Builder
	sb.WriteString("\n다음 정보를 바탕으로 자기소개서를 작성해주세요:\n\n")
	sb.WriteString("[지원자 정보]\n")
	sb.WriteString(fmt.Sprintf("- 이름: %s\n", a.Name))
	sb.WriteString(fmt.Sprintf("- 지원 회사: %s\n", a.Company))
	sb.WriteString(fmt.Sprintf("- 지원 직무: %s\n\n", a.Position))
	sb.WriteString("[경력 및 경험]\n")
	sb.WriteString(a.Experience)
	sb.WriteString("\n\n[보유 기술/역량]\n")
	sb.WriteString(a.Skills)
	sb.WriteString("\n\n[지원 동기]\n")
	sb.WriteString(a.Motivation)
	sb.WriteString("\n\n위 정보를 바탕으로 해당 회사와 직무에 맞는 설득력 있는 자기소개서를 작성해주세요.\n")
	return Prompt{User: sb.String()}
}

// WithVersion asks for version i (1-based) from a different angle.
func (p Prompt) WithVersion(i int) Prompt {
	p.User += fmt.Sprintf("\n\n[버전 %d: 다른 관점으로 작성]", i)
	return p
}

const variationPrompt = `당신은 전문 자기소개서 컨설턴트입니다.

아래에 주어진 자기소개서를 바탕으로 **새로운 베리에이션**을 작성해주세요.

## 베리에이션 작성 규칙:

1. **핵심 내용은 유지**: 지원자의 경험, 역량, 지원동기의 핵심은 그대로 유지
2. **다른 관점으로 재구성**: 같은 이야기를 다른 각도에서 풀어나가기
3. **문체 변화**: 비슷하지만 다른 표현과 문장 구조 사용
4. **구조 재배치**: 강조점이나 순서를 약간 변경
5. **분량 유지**: 원본과 비슷한 길이 (최소 1,500자 이상)
6. **격식체 유지**: ~입니다, ~합니다 체 사용
7. **자연스러움**: 사람이 직접 다시 쓴 것처럼 자연스럽게

원본 자기소개서의 틀을 완전히 바꾸지 말고, 같은 스토리를 다른 방식으로 표현해주세요.
마치 같은 사람이 여러 번 다시 쓴 것처럼 느껴져야 합니다.

---

원본 자기소개서:
`

// BuildVariationPrompt puts the original letter in the system message and asks for variation i.
func BuildVariationPrompt(original string, i int) Prompt {
	return Prompt{
		System:      variationPrompt + original,
		User:        fmt.Sprintf("베리에이션 %d번을 작성해주세요. 이전 버전과 다른 관점이나 강조점으로 작성해주세요.", i),
		Temperature: 0.85,
		MaxTokens:   4000,
	}
}

const translationPrompt = `You are a professional translator specializing in Korean to English translation for business documents.

Your task is to translate a Korean cover letter (자기소개서) into natural, professional English.

## Translation Guidelines:

### 1. Tone & Style
- Use professional, formal business English
- Maintain the warmth and sincerity of the original text
- Sound natural, as if written by a native English speaker
- Avoid literal translations that sound awkward

### 2. Grammar & Structure
- Ensure perfect grammar and punctuation
- Use appropriate business idioms and expressions
- Maintain paragraph structure from the original
- Use active voice when possible

### 3. Cultural Adaptation
- Adapt Korean cultural expressions to Western business context
- Convert Korean-specific references to universally understood concepts
- Keep the personal touch while being professionally appropriate

### 4. Quality Standards
- The translation should read as if originally written in English
- Preserve the candidate's unique voice and personality
- Ensure consistency in tense and perspective
- Use varied vocabulary to avoid repetition

Translate the following Korean cover letter into professional English:`

// BuildTranslatePrompt asks for a Korean to English business translation.
func BuildTranslatePrompt(text string) Prompt {
	return Prompt{
		System:      translationPrompt,
		User:        text,
		Temperature: 0.3,
		MaxTokens:   4000,
	}
}

const reviewPrompt = `당신은 대기업 인사담당자 출신의 자기소개서 전문 컨설턴트입니다.
15년간 수만 건의 자기소개서를 검토하고 평가해온 경험을 바탕으로, 아래 자기소개서를 꼼꼼히 분석해주세요.

## 분석 형식 (반드시 아래 JSON 형식으로 응답)

{
  "overall_score": 85,
  "overall_comment": "전체적인 평가 코멘트 (2-3문장)",
  "revised_content": "모든 수정 제안이 반영된 완성된 자기소개서 전문 (원본과 동일한 길이 유지, 수정이 필요한 부분만 개선하여 작성)",
  "strengths": [
    {
      "text": "잘 쓴 부분 원문 인용 (정확하게 인용)",
      "comment": "왜 좋은지 설명"
    }
  ],
  "improvements": [
    {
      "original": "수정이 필요한 부분 원문 인용 (정확하게 인용)",
      "suggestion": "수정된 문장 전체",
      "reason": "수정 이유"
    }
  ],
  "additions": [
    {
      "where": "어느 문장 뒤에 추가하면 좋을지 (정확하게 인용)",
      "content": "추가하면 좋을 내용",
      "reason": "추가 이유"
    }
  ],
  "appeal_points": [
    {
      "text": "더 강조하면 좋을 부분 (정확하게 인용)",
      "how": "이렇게 어필하면 더 효과적"
    }
  ],
  "warnings": [
    {
      "text": "주의해야 할 표현 (정확하게 인용)",
      "reason": "왜 주의해야 하는지"
    }
  ]
}

중요:
- revised_content는 모든 improvements의 수정 제안을 반영한 완성본입니다.
- 각 항목의 text/original/where는 원문에서 정확히 일치하는 문장을 인용해야 합니다.

## 분석 기준

1. **수정 필요 (improvements)**:
   - 문법 오류, 어색한 표현
   - 추상적이거나 막연한 표현
   - 신뢰도가 낮아 보이는 부분
   - 클리셰나 진부한 표현

2. **추가 권장 (additions)**:
   - 구체적인 숫자나 성과가 빠진 부분
   - 스토리텔링이 약한 부분
   - 차별화 포인트가 부족한 부분

3. **어필 포인트 (appeal_points)**:
   - 이미 좋은데 더 강조하면 효과적인 부분
   - 면접에서 질문받을 만한 흥미로운 포인트

4. **주의 사항 (warnings)**:
   - 과장되어 보일 수 있는 표현
   - 검증하기 어려운 주장
   - 부정적으로 해석될 수 있는 부분

반드시 위의 JSON 형식만 출력하세요. 다른 텍스트는 포함하지 마세요.
`

// BuildReviewPrompt asks for a ReviewReport JSON object about content.
func BuildReviewPrompt(content string) Prompt {
	return Prompt{
		System:      reviewPrompt,
		User:        "다음 자기소개서를 분석해주세요:\n\n" + content,
		Temperature: 0.3,
		MaxTokens:   4000,
		JSON:        true,
	}
}
