package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// The three generative endpoints are stateless: they wrap one AI round
// trip each and know nothing about sessions.

type generateStoryRequest struct {
	Idea       string `json:"idea"`
	SceneCount int    `json:"sceneCount"`
}

type storySceneDTO struct {
	ID          int    `json:"id"`
	Narration   string `json:"narration"`
	ImagePrompt string `json:"imagePrompt"`
}

type generateStoryResponse struct {
	Title  string          `json:"title"`
	Scenes []storySceneDTO `json:"scenes"`
}

func (h *StoryboardHandler) generateStory(c *gin.Context) {
	var req generateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: msgEmptyIdea})
		return
	}

	board, err := h.stories.GenerateStory(c.Request.Context(), req.Idea, req.SceneCount)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := generateStoryResponse{Title: board.Title}
	for _, sc := range board.Scenes {
		resp.Scenes = append(resp.Scenes, storySceneDTO{
			ID:          sc.ID,
			Narration:   sc.Narration,
			ImagePrompt: sc.ImagePrompt,
		})
	}

	c.JSON(http.StatusOK, resp)
}

type generateImageRequest struct {
	Prompt  string `json:"prompt"`
	SceneID int    `json:"sceneId"`
}

type generateImageResponse struct {
	ImageURL string `json:"imageUrl"`
	SceneID  int    `json:"sceneId"`
}

func (h *StoryboardHandler) generateImage(c *gin.Context) {
	var req generateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: msgEmptyPrompt})
		return
	}

	dataURI, err := h.images.GenerateImage(c.Request.Context(), req.Prompt)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateImageResponse{ImageURL: dataURI, SceneID: req.SceneID})
}

type regenerateSceneRequest struct {
	Narration string `json:"narration"`
	Feedback  string `json:"feedback"`
}

type regenerateSceneResponse struct {
	ImageURL    string `json:"imageUrl"`
	ImagePrompt string `json:"imagePrompt"`
}

func (h *StoryboardHandler) regenerateScene(c *gin.Context) {
	var req regenerateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: msgErrorPrefix + err.Error()})
		return
	}

	res, err := h.regen.RegenerateScene(c.Request.Context(), req.Narration, req.Feedback)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Debug("Scene regenerated standalone", zap.Int("prompt_chars", len(res.ImagePrompt)))

	c.JSON(http.StatusOK, regenerateSceneResponse{ImageURL: res.ImageURL, ImagePrompt: res.ImagePrompt})
}
