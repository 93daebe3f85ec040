package imaging

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash-exp-image-generation"

// ErrMissingCredential is returned before any network call when no key is configured.
var ErrMissingCredential = errors.New("gemini api key missing")

// GeminiImager generates ID photos with a Gemini image model.
type GeminiImager struct {
	client *genai.Client
	model  string
}

// NewGeminiImager creates the genai client once at startup.
func NewGeminiImager(ctx context.Context, apiKey, model string) (*GeminiImager, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiImager{client: client, model: model}, nil
}

func (g *GeminiImager) GenerateImages(ctx context.Context, req ImageRequest) ([]string, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(req.Data, mime),
			genai.NewPartFromText(BuildPrompt(req.Outfit, req.Background)),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return extractImages(resp)
}

// extractImages turns inline image parts into data URIs. A text-only answer is
// a failure carrying the start of the text.
func extractImages(resp *genai.GenerateContentResponse) ([]string, error) {
	var images []string
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			images = append(images, EncodeDataURI(part.InlineData.MIMEType, part.InlineData.Data))
		}
	}
	if len(images) > 0 {
		return images, nil
	}
	text := ""
	if resp != nil {
		text = resp.Text()
	}
	runes := []rune(text)
	if len(runes) > 200 {
		runes = runes[:200]
	}
	return nil, fmt.Errorf("이미지 생성에 실패했습니다. 응답: %s", string(runes))
}
