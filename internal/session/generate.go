package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
	"storyboard-server/internal/service"
)

// imageBatchSize bounds how many scene images are generated at once.
const imageBatchSize = 3

// Generator runs the full storyboard generation for one session: the
// story call, then image fan-out in settled batches.
type Generator struct {
	stories service.StoryService
	images  service.ImageService
	logger  *zap.Logger
}

func NewGenerator(stories service.StoryService, images service.ImageService, logger *zap.Logger) *Generator {
	return &Generator{
		stories: stories,
		images:  images,
		logger:  logger.Named("Generator"),
	}
}

// Run drives a session from generating to editing. Every write back into
// the session carries the generation token; stale results are dropped
// silently. A failed scene image is logged and skipped, it cancels
// neither its batch siblings nor later batches.
func (g *Generator) Run(ctx context.Context, s *Session, token uuid.UUID, idea string, sceneCount int) {
	board, err := g.stories.GenerateStory(ctx, idea, sceneCount)
	if err != nil {
		g.logger.Error("Story generation failed", zap.String("session_id", s.ID.String()), zap.Error(err))
		s.failGeneration(token, err)
		return
	}

	if !s.setStoryboard(token, board) {
		g.logger.Info("Dropping stale story result", zap.String("session_id", s.ID.String()))
		return
	}

	g.generateImages(ctx, s, token, board.Scenes)

	if s.finishGeneration(token) {
		g.logger.Info("Storyboard ready",
			zap.String("session_id", s.ID.String()),
			zap.String("title", board.Title),
			zap.Int("scenes", len(board.Scenes)))
	}
}

func (g *Generator) generateImages(ctx context.Context, s *Session, token uuid.UUID, scenes []model.Scene) {
	total := len(scenes)
	done := 0

	for start := 0; start < total; start += imageBatchSize {
		end := start + imageBatchSize
		if end > total {
			end = total
		}
		batch := scenes[start:end]

		type result struct {
			sceneID int
			dataURI string
			err     error
		}
		results := make([]result, len(batch))

		var wg sync.WaitGroup
		for i, scene := range batch {
			wg.Add(1)
			go func(i int, scene model.Scene) {
				defer wg.Done()
				uri, err := g.images.GenerateImage(ctx, scene.ImagePrompt)
				results[i] = result{sceneID: scene.ID, dataURI: uri, err: err}
			}(i, scene)
		}
		wg.Wait()

		for _, r := range results {
			done++
			if r.err != nil {
				// soft failure: the scene stays imageless
				g.logger.Warn("Scene image failed",
					zap.String("session_id", s.ID.String()),
					zap.Int("scene_id", r.sceneID),
					zap.Error(r.err))
				continue
			}
			progress := done * 100 / total
			if !s.applyGeneratedImage(token, r.sceneID, r.dataURI, progress) {
				g.logger.Info("Dropping stale image result",
					zap.String("session_id", s.ID.String()),
					zap.Int("scene_id", r.sceneID))
				return
			}
		}
	}
}
