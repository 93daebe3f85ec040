package imaging

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultCount is the number of ID photos produced per request.
const DefaultCount = 4

// DefaultBackground is used when the request names no background colour.
const DefaultBackground = "흰색 (white, #FFFFFF)"

// ImageRequest is one image generation call.
type ImageRequest struct {
	MIMEType   string
	Data       []byte
	Outfit     string
	Background string
}

// ImageClient abstracts an image generation provider. It returns data URIs.
type ImageClient interface {
	GenerateImages(ctx context.Context, req ImageRequest) ([]string, error)
}

var outfitDescriptions = map[string]string{
	"suit_black":  "검정색 정장과 흰색 셔츠를 입은",
	"suit_navy":   "네이비색 정장과 흰색 셔츠를 입은",
	"suit_gray":   "회색 정장과 흰색 셔츠를 입은",
	"shirt_white": "깔끔한 흰색 셔츠를 입은",
	"blouse":      "단정한 블라우스를 입은",
	"casual":      "비즈니스 캐주얼 스타일의",
}

// OutfitDescription maps an outfit id to its prompt phrase; unknown ids get a generic suit.
func OutfitDescription(id string) string {
	if d, ok := outfitDescriptions[id]; ok {
		return d
	}
	return "정장을 입은"
}

// BuildPrompt renders the ID photo instruction.
func BuildPrompt(outfit, background string) string {
	if background == "" {
		background = DefaultBackground
	}
	return fmt.Sprintf(`이 사진의 인물을 기반으로 한국식 증명사진을 생성해주세요.

요구사항:
1. %s 모습으로 변환
2. 배경은 %s 단색
3. 얼굴은 정면을 바라보고 있으며 자연스러운 미소
4. 어깨부터 머리 위까지 보이는 상반신 구도
5. 조명은 밝고 균일하게
6. 3x4 비율의 한국 여권/증명사진 스타일
7. 전문적이고 깔끔한 인상

원본 얼굴의 특징(눈, 코, 입, 얼굴형)을 최대한 유지하면서 증명사진 스타일로 변환해주세요.`, OutfitDescription(outfit), background)
}

// ParseDataURI splits `data:<mime>;base64,<payload>`. A bare base64 payload is
// accepted as image/jpeg.
func ParseDataURI(uri string) (string, []byte, error) {
	mime := "image/jpeg"
	payload := uri
	if strings.HasPrefix(uri, "data:") {
		head, body, ok := strings.Cut(uri, ",")
		if !ok {
			return "", nil, errors.New("malformed data uri")
		}
		meta := strings.TrimPrefix(head, "data:")
		if t, _, _ := strings.Cut(meta, ";"); t != "" {
			mime = t
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	if len(data) == 0 {
		return "", nil, errors.New("empty image")
	}
	return mime, data, nil
}

// EncodeDataURI is the inverse of ParseDataURI.
func EncodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Service replicates one source photo into Count independent calls.
type Service struct {
	Client ImageClient
	Count  int
	Log    logrus.FieldLogger
}

// Generate runs Count calls concurrently and concatenates their images in
// dispatch order, truncated to Count. It fails only when no call produced an
// image, with the first error in dispatch order.
func (s *Service) Generate(ctx context.Context, req ImageRequest) ([]string, error) {
	n := s.Count
	if n <= 0 {
		n = DefaultCount
	}
	images := make([][]string, n)
	errs := make([]error, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			imgs, err := s.Client.GenerateImages(ctx, req)
			images[i], errs[i] = imgs, err
			return nil
		})
	}
	_ = g.Wait()

	var all []string
	var firstErr error
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			s.logger().WithError(errs[i]).WithField("call", i+1).Warn("id photo call failed")
			continue
		}
		all = append(all, images[i]...)
	}
	if len(all) == 0 {
		if firstErr == nil {
			firstErr = errors.New("이미지 생성에 실패했습니다.")
		}
		return nil, firstErr
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
