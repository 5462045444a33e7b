package service_test

import (
	"context"
	"strings"
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

func TestRegenerateScene(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites the prompt and generates a fresh image", func(t *testing.T) {
		textClient := mocks.NewMockTextClient(t)
		imageClient := mocks.NewMockImageClient(t)
		svc := service.NewRegenerationService(textClient, imageClient, zap.NewNop())

		rewritten := "a happy dragon under a rainbow, children's crayon drawing on white paper, colorful, simple shapes, hand-drawn style, cute"

		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				userPrompt := args.String(2)
				params := args.Get(3).(ai.GenerationParams)
				assert.Contains(t, userPrompt, `Scene: "The dragon is happy."`)
				assert.Contains(t, userPrompt, `Feedback: "make it sunnier"`)
				require.NotNil(t, params.MaxTokens)
				assert.Equal(t, 300, *params.MaxTokens)
			}).
			Return(rewritten, nil).Once()

		imageClient.On("GenerateImage", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			// the regeneration suffix variant does not end in "playful and whimsical"
			return strings.HasPrefix(prompt, rewritten) &&
				strings.HasSuffix(prompt, "no text, no words")
		})).Return([]byte{1, 2, 3}, nil).Once()

		res, err := svc.RegenerateScene(ctx, "The dragon is happy.", "make it sunnier")
		require.NoError(t, err)
		assert.Equal(t, rewritten, res.ImagePrompt)
		assert.True(t, strings.HasPrefix(res.ImageURL, "data:image/png;base64,"))
		textClient.AssertExpectations(t)
		imageClient.AssertExpectations(t)
	})

	t.Run("omits the feedback line when feedback is empty", func(t *testing.T) {
		textClient := mocks.NewMockTextClient(t)
		imageClient := mocks.NewMockImageClient(t)
		svc := service.NewRegenerationService(textClient, imageClient, zap.NewNop())

		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				assert.NotContains(t, args.String(2), "Feedback:")
			}).
			Return("new prompt", nil).Once()
		imageClient.On("GenerateImage", mock.Anything, mock.Anything).Return([]byte{1}, nil).Once()

		_, err := svc.RegenerateScene(ctx, "A scene.", "")
		require.NoError(t, err)
		textClient.AssertExpectations(t)
	})

	t.Run("fails when the rewrite comes back empty", func(t *testing.T) {
		textClient := mocks.NewMockTextClient(t)
		imageClient := mocks.NewMockImageClient(t)
		svc := service.NewRegenerationService(textClient, imageClient, zap.NewNop())

		textClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("   ", nil).Once()

		_, err := svc.RegenerateScene(ctx, "A scene.", "")
		assert.ErrorIs(t, err, model.ErrEmptyPrompt)
		imageClient.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything)
	})
}
