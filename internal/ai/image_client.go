package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"

	"storyboard-server/internal/config"
	"storyboard-server/internal/model"
)

// ErrImageGenerationFailed wraps every failure of an image generation call.
var ErrImageGenerationFailed = errors.New("AI image generation failed")

// ImageClient turns a prompt into raw image bytes.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// openAIImageClient drives DALL-E via go-openai. The API answers with a
// short-lived URL; the client fetches it and returns the bytes so callers
// never see the upstream URL.
type openAIImageClient struct {
	client     *openaigo.Client
	httpClient *http.Client
	model      string
}

// NewImageClient builds the DALL-E backed ImageClient.
func NewImageClient(cfg config.AIConfig) (ImageClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("image generation requires OPENAI_API_KEY")
	}
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	httpClient := &http.Client{
		Timeout: cfg.Timeout(),
	}
	openaiConfig.HTTPClient = httpClient

	log.Info().Str("model", cfg.ImageModel).Dur("timeout", cfg.Timeout()).Msg("Image client created")

	return &openAIImageClient{
		client:     openaigo.NewClientWithConfig(openaiConfig),
		httpClient: httpClient,
		model:      cfg.ImageModel,
	}, nil
}

func (c *openAIImageClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	startTime := time.Now()
	log.Debug().Str("model", c.model).Int("prompt_bytes", len(prompt)).Msg("Sending image request")

	resp, err := c.client.CreateImage(ctx, openaigo.ImageRequest{
		Model:   c.model,
		Prompt:  prompt,
		N:       1,
		Size:    openaigo.CreateImageSize1024x1024,
		Quality: openaigo.CreateImageQualityStandard,
		Style:   openaigo.CreateImageStyleVivid,
	})

	duration := time.Since(startTime)

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Image API error")
		imageRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return nil, fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		log.Error().Dur("duration", duration).Msg("Image API answered without image data")
		imageRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_no_image"}).Inc()
		return nil, model.ErrNoImage
	}

	data, err := c.fetchImage(ctx, resp.Data[0].URL)
	if err != nil {
		imageRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_fetch"}).Inc()
		return nil, err
	}

	imageRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	imageRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(time.Since(startTime).Seconds())
	log.Debug().Dur("duration", time.Since(startTime)).Int("bytes", len(data)).Msg("Image downloaded")

	return data, nil
}

func (c *openAIImageClient) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: image download: %v", ErrImageGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: image download status %d: %s", ErrImageGenerationFailed, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading image body: %v", ErrImageGenerationFailed, err)
	}
	if len(data) == 0 {
		return nil, model.ErrNoImage
	}

	return data, nil
}
