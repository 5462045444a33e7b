package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storyboard-server/internal/ai"
	"storyboard-server/internal/model"
)

// Scene count bounds for a generated story.
const (
	DefaultSceneCount = 5
	MinSceneCount     = 3
	MaxSceneCount     = 8
)

// Sampling parameters for the story call.
const (
	storyTemperature = 0.9
	storyMaxTokens   = 2000
)

// StoryService turns a free-form idea into a titled multi-scene story.
type StoryService interface {
	GenerateStory(ctx context.Context, idea string, sceneCount int) (*model.Storyboard, error)
}

type storyService struct {
	text          ai.TextClient
	textModel     string
	maxIdeaTokens int
	logger        *zap.Logger
}

// NewStoryService builds the StoryService. maxIdeaTokens bounds the idea
// text; 0 disables the check.
func NewStoryService(text ai.TextClient, textModel string, maxIdeaTokens int, logger *zap.Logger) StoryService {
	return &storyService{
		text:          text,
		textModel:     textModel,
		maxIdeaTokens: maxIdeaTokens,
		logger:        logger.Named("StoryService"),
	}
}

// ClampSceneCount forces n into the supported range; 0 selects the default.
func ClampSceneCount(n int) int {
	if n == 0 {
		return DefaultSceneCount
	}
	if n < MinSceneCount {
		return MinSceneCount
	}
	if n > MaxSceneCount {
		return MaxSceneCount
	}
	return n
}

// storyReply mirrors the JSON the model is instructed to emit.
type storyReply struct {
	Title  string `json:"title"`
	Scenes []struct {
		ID          int    `json:"id"`
		Narration   string `json:"narration"`
		ImagePrompt string `json:"imagePrompt"`
	} `json:"scenes"`
}

func (s *storyService) GenerateStory(ctx context.Context, idea string, sceneCount int) (*model.Storyboard, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, model.ErrEmptyIdea
	}
	if s.maxIdeaTokens > 0 {
		if tokens := ai.CountTokens(s.textModel, idea); tokens > s.maxIdeaTokens {
			s.logger.Warn("Idea rejected, token budget exceeded",
				zap.Int("tokens", tokens), zap.Int("budget", s.maxIdeaTokens))
			return nil, model.ErrIdeaTooLong
		}
	}

	sceneCount = ClampSceneCount(sceneCount)

	systemPrompt := fmt.Sprintf(storySystemPromptTemplate, sceneCount)
	userPrompt := fmt.Sprintf(storyUserPromptTemplate, sceneCount, idea)

	temperature := storyTemperature
	maxTokens := storyMaxTokens
	reply, err := s.text.GenerateText(ctx, systemPrompt, userPrompt, ai.GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw := ai.ExtractJSONContent(reply)
	if raw == "" {
		s.logger.Error("Story reply contained no JSON", zap.Int("reply_chars", len(reply)))
		return nil, model.ErrStorySchema
	}

	var parsed storyReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		s.logger.Error("Story reply failed to parse", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", model.ErrStorySchema, err)
	}

	board, err := buildStoryboard(parsed)
	if err != nil {
		return nil, err
	}

	if len(board.Scenes) != sceneCount {
		// Model output length wins; the request count is only a target.
		s.logger.Warn("Model returned a different scene count",
			zap.Int("requested", sceneCount), zap.Int("returned", len(board.Scenes)))
	}

	s.logger.Info("Story generated",
		zap.String("title", board.Title), zap.Int("scenes", len(board.Scenes)))

	return board, nil
}

func buildStoryboard(parsed storyReply) (*model.Storyboard, error) {
	if strings.TrimSpace(parsed.Title) == "" || len(parsed.Scenes) == 0 {
		return nil, model.ErrStorySchema
	}

	board := &model.Storyboard{Title: parsed.Title}
	for i, sc := range parsed.Scenes {
		if strings.TrimSpace(sc.Narration) == "" || strings.TrimSpace(sc.ImagePrompt) == "" {
			return nil, fmt.Errorf("%w: scene %d is incomplete", model.ErrStorySchema, i+1)
		}
		id := sc.ID
		if id == 0 {
			id = i + 1
		}
		board.Scenes = append(board.Scenes, model.Scene{
			ID:          id,
			Narration:   sc.Narration,
			ImagePrompt: sc.ImagePrompt,
			Duration:    model.DefaultSceneDuration,
		})
	}
	return board, nil
}
