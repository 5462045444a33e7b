package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storyboard-server/internal/ai"
	"storyboard-server/internal/model"
)

// Sampling parameters for the prompt rewrite call.
const (
	regenerateTemperature = 0.9
	regenerateMaxTokens   = 300
)

// RegenerationResult carries a freshly generated image and the prompt
// that produced it.
type RegenerationResult struct {
	ImageURL    string
	ImagePrompt string
}

// RegenerationService redoes a scene image from its narration plus
// optional user feedback. The image prompt is rewritten first, then the
// image is generated from the rewritten prompt.
type RegenerationService interface {
	RegenerateScene(ctx context.Context, narration, feedback string) (*RegenerationResult, error)
}

type regenerationService struct {
	text   ai.TextClient
	images ai.ImageClient
	logger *zap.Logger
}

func NewRegenerationService(text ai.TextClient, images ai.ImageClient, logger *zap.Logger) RegenerationService {
	return &regenerationService{
		text:   text,
		images: images,
		logger: logger.Named("RegenerationService"),
	}
}

func (s *regenerationService) RegenerateScene(ctx context.Context, narration, feedback string) (*RegenerationResult, error) {
	userPrompt := fmt.Sprintf("Scene: %q", narration)
	if strings.TrimSpace(feedback) != "" {
		userPrompt += fmt.Sprintf("\nFeedback: %q", feedback)
	}

	temperature := regenerateTemperature
	maxTokens := regenerateMaxTokens
	imagePrompt, err := s.text.GenerateText(ctx, regeneratePromptSystemPrompt, userPrompt, ai.GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, err
	}
	imagePrompt = strings.TrimSpace(imagePrompt)
	if imagePrompt == "" {
		return nil, model.ErrEmptyPrompt
	}

	fullPrompt := imagePrompt + regenerateStyleSuffix

	data, err := s.images.GenerateImage(ctx, fullPrompt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Scene image regenerated",
		zap.Int("prompt_chars", len(imagePrompt)), zap.Bool("with_feedback", feedback != ""))

	return &RegenerationResult{
		ImageURL:    EncodeDataURI(data),
		ImagePrompt: imagePrompt,
	}, nil
}
