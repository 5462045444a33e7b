package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// FrameEncoder assembles submitted JPEG frames into an MP4. Implementations
// own a scratch area; Cleanup must be safe to call no matter how far the
// encode got.
type FrameEncoder interface {
	SubmitFrame(data []byte) error
	Encode(ctx context.Context) ([]byte, error)
	Cleanup()
}

const outputFileName = "output.mp4"

// FFmpegEncoder shells out to ffmpeg over a temp directory of numbered
// frame files. One frame equals one second of video (-framerate 1).
type FFmpegEncoder struct {
	ffmpegPath string
	dir        string
	frameCount int
	logger     *zap.Logger
}

// NewFFmpegEncoder creates the scratch directory for one encode run.
func NewFFmpegEncoder(ffmpegPath string, logger *zap.Logger) (*FFmpegEncoder, error) {
	dir, err := os.MkdirTemp("", "storyboard-export-*")
	if err != nil {
		return nil, fmt.Errorf("creating export workdir: %w", err)
	}
	return &FFmpegEncoder{
		ffmpegPath: ffmpegPath,
		dir:        dir,
		logger:     logger.Named("FFmpegEncoder"),
	}, nil
}

// SubmitFrame writes the next frame file. Repeating a scene's bytes for
// each second of its duration is the caller's job.
func (e *FFmpegEncoder) SubmitFrame(data []byte) error {
	name := filepath.Join(e.dir, fmt.Sprintf("frame%05d.jpg", e.frameCount))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("writing frame %d: %w", e.frameCount, err)
	}
	e.frameCount++
	return nil
}

// Encode runs ffmpeg over the submitted frames and returns the MP4 bytes.
func (e *FFmpegEncoder) Encode(ctx context.Context) ([]byte, error) {
	if e.frameCount == 0 {
		return nil, fmt.Errorf("no frames submitted")
	}

	args := []string{
		"-y",
		"-framerate", "1",
		"-i", "frame%05d.jpg",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outputFileName,
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Dir = e.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Info("Running ffmpeg", zap.Int("frames", e.frameCount))

	if err := cmd.Run(); err != nil {
		e.logger.Error("ffmpeg failed", zap.Error(err), zap.String("stderr", tail(stderr.String(), 2000)))
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 500))
	}

	data, err := os.ReadFile(filepath.Join(e.dir, outputFileName))
	if err != nil {
		return nil, fmt.Errorf("reading encoded video: %w", err)
	}

	e.logger.Info("Video encoded", zap.Int("bytes", len(data)))
	return data, nil
}

// Cleanup removes the scratch directory. Errors are swallowed; leftover
// temp dirs are harmless compared to failing an otherwise good export.
func (e *FFmpegEncoder) Cleanup() {
	if e.dir == "" {
		return
	}
	if err := os.RemoveAll(e.dir); err != nil {
		e.logger.Warn("Failed to remove export workdir", zap.String("dir", e.dir), zap.Error(err))
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
