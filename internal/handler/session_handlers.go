package handler

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storyboard-server/internal/model"
	"storyboard-server/internal/session"
)

const previewJPEGQuality = 92

type createStoryboardRequest struct {
	Idea       string `json:"idea"`
	SceneCount int    `json:"sceneCount"`
}

func (h *StoryboardHandler) createStoryboard(c *gin.Context) {
	var req createStoryboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: msgEmptyIdea})
		return
	}

	snap, err := h.sessions.Create(req.Idea, req.SceneCount)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, snap)
}

func (h *StoryboardHandler) getStoryboard(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *StoryboardHandler) deleteStoryboard(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.Delete(id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// updateSceneRequest carries partial scene edits; absent fields stay as
// they are.
type updateSceneRequest struct {
	Narration *string `json:"narration"`
	Duration  *int    `json:"duration"`
}

func (h *StoryboardHandler) updateScene(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	sceneID, ok := h.sceneID(c)
	if !ok {
		return
	}

	var req updateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: msgErrorPrefix + err.Error()})
		return
	}

	if req.Narration != nil {
		if err := s.UpdateNarration(sceneID, *req.Narration); err != nil {
			h.handleServiceError(c, err)
			return
		}
	}
	if req.Duration != nil {
		if err := s.UpdateDuration(sceneID, *req.Duration); err != nil {
			h.handleServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *StoryboardHandler) deleteScene(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	sceneID, ok := h.sceneID(c)
	if !ok {
		return
	}

	snap, err := h.sessions.DeleteScene(id, sceneID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type regenerateStoryboardSceneRequest struct {
	Feedback string `json:"feedback"`
}

func (h *StoryboardHandler) regenerateStoryboardScene(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	sceneID, ok := h.sceneID(c)
	if !ok {
		return
	}

	var req regenerateStoryboardSceneRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, APIError{Error: msgErrorPrefix + err.Error()})
			return
		}
	}

	snap, err := h.sessions.RegenerateScene(c.Request.Context(), id, sceneID, req.Feedback)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type moveSceneRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *StoryboardHandler) moveScene(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req moveSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: msgErrorPrefix + err.Error()})
		return
	}

	if err := s.MoveScene(req.From, req.To); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

type playbackRequest struct {
	Action string `json:"action" binding:"required,oneof=play stop next prev seek"`
	Index  *int   `json:"index"`
}

func (h *StoryboardHandler) playback(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req playbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: msgErrorPrefix + err.Error()})
		return
	}

	var err error
	switch req.Action {
	case "play":
		err = s.Play()
	case "stop":
		err = s.StopPlayback()
	case "next":
		err = s.NextScene()
	case "prev":
		err = s.PrevScene()
	case "seek":
		if req.Index == nil {
			c.JSON(http.StatusBadRequest, APIError{Error: msgErrorPrefix + "seek braucht einen Index"})
			return
		}
		err = s.SeekScene(*req.Index)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *StoryboardHandler) preview(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	img, err := h.sessions.Preview(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: previewJPEGQuality}); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

func (h *StoryboardHandler) exportVideo(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	data, filename, err := h.sessions.Export(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "video/mp4", data)
}

// --- param helpers ---

func (h *StoryboardHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, APIError{Error: msgNotFound})
		return uuid.Nil, false
	}
	return id, true
}

func (h *StoryboardHandler) session(c *gin.Context) (*session.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	return s, true
}

func (h *StoryboardHandler) sceneID(c *gin.Context) (int, bool) {
	sceneID, err := strconv.Atoi(c.Param("sceneID"))
	if err != nil {
		h.handleServiceError(c, model.ErrSceneNotFound)
		return 0, false
	}
	return sceneID, true
}
