package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyboard-server/internal/ai"
	"storyboard-server/internal/mocks"
	"storyboard-server/internal/model"
	"storyboard-server/internal/service"
)

const validStoryJSON = `{
	"title": "Der kleine Drache",
	"scenes": [
		{"id": 1, "narration": "A dragon wakes up.", "imagePrompt": "a small dragon in bed, crayon drawing"},
		{"id": 2, "narration": "The dragon flies away.", "imagePrompt": "a dragon over green hills, crayon drawing"},
		{"id": 3, "narration": "The dragon finds a friend.", "imagePrompt": "dragon and rabbit, crayon drawing"}
	]
}`

func newStoryService(t *testing.T) (service.StoryService, *mocks.MockTextClient) {
	t.Helper()
	textClient := mocks.NewMockTextClient(t)
	svc := service.NewStoryService(textClient, "gpt-4o-mini", 0, zap.NewNop())
	return svc, textClient
}

func TestGenerateStory(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a valid reply into a storyboard", func(t *testing.T) {
		svc, textClient := newStoryService(t)
		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("Here you go:\n```json\n"+validStoryJSON+"\n```", nil).Once()

		board, err := svc.GenerateStory(ctx, "a dragon story", 3)
		require.NoError(t, err)
		assert.Equal(t, "Der kleine Drache", board.Title)
		require.Len(t, board.Scenes, 3)
		for i, sc := range board.Scenes {
			assert.Equal(t, i+1, sc.ID)
			assert.NotEmpty(t, sc.Narration)
			assert.NotEmpty(t, sc.ImagePrompt)
			assert.Equal(t, model.DefaultSceneDuration, sc.Duration)
			assert.False(t, sc.HasImage())
		}
		textClient.AssertExpectations(t)
	})

	t.Run("requests the clamped scene count with story sampling params", func(t *testing.T) {
		svc, textClient := newStoryService(t)
		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				systemPrompt := args.String(1)
				userPrompt := args.String(2)
				params := args.Get(3).(ai.GenerationParams)
				assert.Contains(t, systemPrompt, "broken into 8 scenes")
				assert.Contains(t, userPrompt, `Create a 8-scene visual story for this idea: "robots"`)
				require.NotNil(t, params.Temperature)
				assert.InDelta(t, 0.9, *params.Temperature, 0.0001)
				require.NotNil(t, params.MaxTokens)
				assert.Equal(t, 2000, *params.MaxTokens)
			}).
			Return(validStoryJSON, nil).Once()

		_, err := svc.GenerateStory(ctx, "robots", 12)
		require.NoError(t, err)
		textClient.AssertExpectations(t)
	})

	t.Run("rejects an empty idea without calling the model", func(t *testing.T) {
		svc, textClient := newStoryService(t)

		_, err := svc.GenerateStory(ctx, "   ", 5)
		assert.ErrorIs(t, err, model.ErrEmptyIdea)
		textClient.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates generation errors", func(t *testing.T) {
		svc, textClient := newStoryService(t)
		genErr := errors.New("rate limited")
		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", genErr).Once()

		_, err := svc.GenerateStory(ctx, "a dragon story", 5)
		assert.ErrorIs(t, err, genErr)
	})

	t.Run("fails when the reply has no JSON", func(t *testing.T) {
		svc, textClient := newStoryService(t)
		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("Sorry, I cannot do that.", nil).Once()

		_, err := svc.GenerateStory(ctx, "a dragon story", 5)
		assert.ErrorIs(t, err, model.ErrStorySchema)
	})

	t.Run("fails when a scene is incomplete", func(t *testing.T) {
		svc, textClient := newStoryService(t)
		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(`{"title":"T","scenes":[{"id":1,"narration":"","imagePrompt":"p"}]}`, nil).Once()

		_, err := svc.GenerateStory(ctx, "a dragon story", 5)
		assert.ErrorIs(t, err, model.ErrStorySchema)
	})

	t.Run("fails on an empty title", func(t *testing.T) {
		svc, textClient := newStoryService(t)
		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(`{"title":" ","scenes":[{"id":1,"narration":"n","imagePrompt":"p"}]}`, nil).Once()

		_, err := svc.GenerateStory(ctx, "a dragon story", 5)
		assert.ErrorIs(t, err, model.ErrStorySchema)
	})

	t.Run("accepts a scene count differing from the request", func(t *testing.T) {
		svc, textClient := newStoryService(t)
		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(validStoryJSON, nil).Once()

		board, err := svc.GenerateStory(ctx, "a dragon story", 5)
		require.NoError(t, err)
		assert.Len(t, board.Scenes, 3)
	})
}

func TestClampSceneCount(t *testing.T) {
	assert.Equal(t, service.DefaultSceneCount, service.ClampSceneCount(0))
	assert.Equal(t, service.MinSceneCount, service.ClampSceneCount(1))
	assert.Equal(t, 6, service.ClampSceneCount(6))
	assert.Equal(t, service.MaxSceneCount, service.ClampSceneCount(20))
}
