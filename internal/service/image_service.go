package service

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"storyboard-server/internal/ai"
	"storyboard-server/internal/model"
)

// ImageService turns a scene image prompt into a self-contained data URI.
type ImageService interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type imageService struct {
	images ai.ImageClient
	logger *zap.Logger
}

func NewImageService(images ai.ImageClient, logger *zap.Logger) ImageService {
	return &imageService{
		images: images,
		logger: logger.Named("ImageService"),
	}
}

// GenerateImage appends the crayon style suffix, generates the image and
// re-encodes it as data:image/png;base64. The data URI keeps the result
// usable after the upstream URL expires.
func (s *imageService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", model.ErrEmptyPrompt
	}

	fullPrompt := prompt + imageStyleSuffix

	data, err := s.images.GenerateImage(ctx, fullPrompt)
	if err != nil {
		return "", err
	}

	s.logger.Debug("Image generated", zap.Int("bytes", len(data)))

	return EncodeDataURI(data), nil
}

// EncodeDataURI wraps raw image bytes into a png data URI.
func EncodeDataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
