package session

import (
	"context"
	"image"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyboard-server/internal/compositor"
	"storyboard-server/internal/export"
	"storyboard-server/internal/model"
	"storyboard-server/internal/service"
)

// Manager is the in-memory session registry and the entry point for every
// session operation. Sessions live until they are deleted; starting over
// means creating a new session and deleting the old one.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	gen      *Generator
	regen    service.RegenerationService
	pipeline *export.Pipeline
	comp     *compositor.Compositor
	notifier Notifier
	logger   *zap.Logger
}

func NewManager(gen *Generator, regen service.RegenerationService, pipeline *export.Pipeline, comp *compositor.Compositor, notifier Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		gen:      gen,
		regen:    regen,
		pipeline: pipeline,
		comp:     comp,
		notifier: notifier,
		logger:   logger.Named("SessionManager"),
	}
}

// Create registers a new session and kicks off generation in the
// background. The returned snapshot is already in the generating phase.
func (m *Manager) Create(idea string, sceneCount int) (Snapshot, error) {
	if strings.TrimSpace(idea) == "" {
		return Snapshot{}, model.ErrEmptyIdea
	}

	id := uuid.New()
	notify := func(e Event) {
		if m.notifier != nil {
			m.notifier.Publish(id, e)
		}
	}
	s := newSession(id, notify)

	token, err := s.beginGeneration()
	if err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("Session created", zap.String("session_id", id.String()), zap.Int("scene_count", sceneCount))

	// generation outlives the creating request
	go m.gen.Run(context.Background(), s, token, idea, sceneCount)

	return s.Snapshot(), nil
}

// Get looks a session up by ID.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session. In-flight generation results are orphaned by
// invalidating the token; decoded images are evicted from the cache.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return model.ErrSessionNotFound
	}

	snap := s.Snapshot()
	s.invalidate()
	for _, scene := range snap.Scenes {
		if scene.HasImage() {
			m.comp.Cache().Evict(scene.ImageURL)
		}
	}

	m.logger.Info("Session deleted", zap.String("session_id", id.String()))
	return nil
}

// RegenerateScene redoes one scene's image from its narration plus
// feedback. Only the image and image prompt change.
func (m *Manager) RegenerateScene(ctx context.Context, id uuid.UUID, sceneID int, feedback string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	narration, err := s.sceneNarration(sceneID)
	if err != nil {
		return Snapshot{}, err
	}

	res, err := m.regen.RegenerateScene(ctx, narration, feedback)
	if err != nil {
		return Snapshot{}, err
	}

	oldImage, err := s.applyRegeneration(sceneID, res.ImageURL, res.ImagePrompt)
	if err != nil {
		return Snapshot{}, err
	}
	if oldImage != "" {
		m.comp.Cache().Evict(oldImage)
	}

	return s.Snapshot(), nil
}

// DeleteScene removes a scene and evicts its cached image.
func (m *Manager) DeleteScene(id uuid.UUID, sceneID int) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	removedImage, err := s.DeleteScene(sceneID)
	if err != nil {
		return Snapshot{}, err
	}
	if removedImage != "" {
		m.comp.Cache().Evict(removedImage)
	}
	return s.Snapshot(), nil
}

// Preview renders the session's current scene.
func (m *Manager) Preview(id uuid.UUID) (image.Image, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	board, current, err := s.CurrentBoard()
	if err != nil {
		return nil, err
	}
	return m.comp.Render(&board, current)
}

// Export runs the video pipeline against a frozen copy of the storyboard
// and returns the MP4 with its download filename. The session returns to
// editing afterwards, success or not.
func (m *Manager) Export(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}

	board, err := s.beginExport()
	if err != nil {
		return nil, "", err
	}

	data, err := m.pipeline.Run(ctx, &board, s.setExportProgress)
	s.finishExport(err)
	if err != nil {
		m.logger.Error("Export failed", zap.String("session_id", id.String()), zap.Error(err))
		return nil, "", err
	}

	return data, export.ExportFilename(board.Title), nil
}
