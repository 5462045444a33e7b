package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyboard-server/internal/compositor"
	"storyboard-server/internal/model"
)

// recordingEncoder captures submitted frames instead of invoking ffmpeg.
type recordingEncoder struct {
	frames    [][]byte
	encodeErr error
	cleaned   bool
	output    []byte
}

func (e *recordingEncoder) SubmitFrame(data []byte) error {
	frame := make([]byte, len(data))
	copy(frame, data)
	e.frames = append(e.frames, frame)
	return nil
}

func (e *recordingEncoder) Encode(ctx context.Context) ([]byte, error) {
	if e.encodeErr != nil {
		return nil, e.encodeErr
	}
	return e.output, nil
}

func (e *recordingEncoder) Cleanup() { e.cleaned = true }

func testBoard() *model.Storyboard {
	return &model.Storyboard{
		Title: "Die Drachen-Reise!",
		Scenes: []model.Scene{
			{ID: 1, Narration: "The dragon wakes up.", ImagePrompt: "p", Duration: 3},
			{ID: 2, Narration: "The dragon flies far away.", ImagePrompt: "p", Duration: 5},
			{ID: 3, Narration: "The dragon lands.", ImagePrompt: "p", Duration: 2},
		},
	}
}

func newTestPipeline(t *testing.T, enc *recordingEncoder) *Pipeline {
	t.Helper()
	comp, err := compositor.New()
	require.NoError(t, err)
	return NewPipeline(comp, func() (FrameEncoder, error) { return enc, nil }, zap.NewNop())
}

func TestPipelineRun(t *testing.T) {
	t.Run("submits one frame per second of duration", func(t *testing.T) {
		enc := &recordingEncoder{output: []byte("mp4")}
		p := newTestPipeline(t, enc)

		data, err := p.Run(context.Background(), testBoard(), nil)
		require.NoError(t, err)
		assert.Equal(t, []byte("mp4"), data)

		// durations 3+5+2
		require.Len(t, enc.frames, 10)
		assert.True(t, enc.cleaned)

		// frames of one scene are byte-identical, scenes differ
		for i := 1; i < 3; i++ {
			assert.True(t, bytes.Equal(enc.frames[0], enc.frames[i]), "scene 1 frames differ")
		}
		for i := 4; i < 8; i++ {
			assert.True(t, bytes.Equal(enc.frames[3], enc.frames[i]), "scene 2 frames differ")
		}
		assert.True(t, bytes.Equal(enc.frames[8], enc.frames[9]), "scene 3 frames differ")
		assert.False(t, bytes.Equal(enc.frames[0], enc.frames[3]), "scenes 1 and 2 produced identical frames")
	})

	t.Run("reports monotonic progress ending at 95", func(t *testing.T) {
		enc := &recordingEncoder{output: []byte("mp4")}
		p := newTestPipeline(t, enc)

		var reported []int
		_, err := p.Run(context.Background(), testBoard(), func(pct int) {
			reported = append(reported, pct)
		})
		require.NoError(t, err)

		require.NotEmpty(t, reported)
		for i := 1; i < len(reported); i++ {
			assert.GreaterOrEqual(t, reported[i], reported[i-1], "progress went backwards")
		}
		assert.Equal(t, 95, reported[len(reported)-1])
	})

	t.Run("cleans up when encoding fails", func(t *testing.T) {
		enc := &recordingEncoder{encodeErr: errors.New("ffmpeg exploded")}
		p := newTestPipeline(t, enc)

		_, err := p.Run(context.Background(), testBoard(), nil)
		assert.ErrorContains(t, err, "ffmpeg exploded")
		assert.True(t, enc.cleaned)
	})

	t.Run("stops on a cancelled context", func(t *testing.T) {
		enc := &recordingEncoder{output: []byte("mp4")}
		p := newTestPipeline(t, enc)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Run(ctx, testBoard(), nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, enc.cleaned)
	})

	t.Run("rejects an empty storyboard", func(t *testing.T) {
		enc := &recordingEncoder{}
		p := newTestPipeline(t, enc)

		_, err := p.Run(context.Background(), &model.Storyboard{Title: "T"}, nil)
		assert.Error(t, err)
	})
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "Die_Drachen_Reise__paperdraw.mp4", ExportFilename("Die Drachen-Reise!"))
	assert.Equal(t, "Story_paperdraw.mp4", ExportFilename("Story"))
	assert.Equal(t, "_paperdraw.mp4", ExportFilename(""))
}
