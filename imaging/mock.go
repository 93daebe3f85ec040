package imaging

import "context"

// MockImager echoes the source photo back; used in mock mode.
type MockImager struct{}

func (MockImager) GenerateImages(ctx context.Context, req ImageRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{EncodeDataURI(req.MIMEType, req.Data)}, nil
}
