package export

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"regexp"

	"go.uber.org/zap"

	"storyboard-server/internal/compositor"
	"storyboard-server/internal/model"
)

const frameJPEGQuality = 92

// Progress milestones. Frame rendering spans 0..80, encoding ends at 95;
// the caller owns the final 100 once the download is handed over.
const (
	progressFramesDone = 80
	progressEncoding   = 85
	progressEncoded    = 95
)

// Pipeline renders a storyboard into an MP4: one composited frame per
// scene, repeated once per second of duration, then encoded.
type Pipeline struct {
	comp       *compositor.Compositor
	newEncoder func() (FrameEncoder, error)
	logger     *zap.Logger
}

func NewPipeline(comp *compositor.Compositor, newEncoder func() (FrameEncoder, error), logger *zap.Logger) *Pipeline {
	return &Pipeline{
		comp:       comp,
		newEncoder: newEncoder,
		logger:     logger.Named("ExportPipeline"),
	}
}

// Run produces the video bytes for the storyboard. progress receives
// monotonically increasing percentages; pass nil to skip reporting.
func (p *Pipeline) Run(ctx context.Context, board *model.Storyboard, progress func(int)) ([]byte, error) {
	if progress == nil {
		progress = func(int) {}
	}
	if len(board.Scenes) == 0 {
		return nil, model.ErrSceneNotFound
	}

	enc, err := p.newEncoder()
	if err != nil {
		return nil, err
	}
	defer enc.Cleanup()

	totalScenes := len(board.Scenes)
	for i := range board.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scene := board.Scenes[i]

		img, err := p.comp.Render(board, i)
		if err != nil {
			return nil, fmt.Errorf("rendering scene %d: %w", scene.ID, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: frameJPEGQuality}); err != nil {
			return nil, fmt.Errorf("encoding scene %d frame: %w", scene.ID, err)
		}

		// one identical frame per second of scene duration
		for f := 0; f < scene.Duration; f++ {
			if err := enc.SubmitFrame(buf.Bytes()); err != nil {
				return nil, err
			}
		}

		progress((i + 1) * progressFramesDone / totalScenes)
	}

	progress(progressEncoding)

	data, err := enc.Encode(ctx)
	if err != nil {
		return nil, err
	}

	progress(progressEncoded)

	p.logger.Info("Export finished",
		zap.String("title", board.Title),
		zap.Int("scenes", totalScenes),
		zap.Int("seconds", board.TotalDuration()),
		zap.Int("bytes", len(data)))

	return data, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ExportFilename derives the download name from the story title.
func ExportFilename(title string) string {
	return unsafeFilenameChars.ReplaceAllString(title, "_") + "_paperdraw.mp4"
}
