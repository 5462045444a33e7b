package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storyboard-server/internal/model"
)

// Phase is the lifecycle state of a storyboard session.
type Phase string

const (
	// PhaseInput: no storyboard yet, or the last generation failed.
	PhaseInput Phase = "input"
	// PhaseGenerating: story and images are being produced.
	PhaseGenerating Phase = "generating"
	// PhaseEditing: the storyboard is ready and mutable.
	PhaseEditing Phase = "editing"
	// PhaseExporting: a video export is running, the storyboard is frozen.
	PhaseExporting Phase = "exporting"

	// PhasePreviewing only ever appears in snapshots: it is PhaseEditing
	// with the playback timer running.
	PhasePreviewing Phase = "previewing"
)

// Event is pushed to WebSocket subscribers whenever a session changes.
type Event struct {
	Type     string `json:"type"`
	Phase    Phase  `json:"phase"`
	Progress int    `json:"progress,omitempty"`
	Scene    int    `json:"scene,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Event types.
const (
	EventPhase      = "phase"
	EventGeneration = "generation"
	EventExport     = "export"
	EventPlayback   = "playback"
	EventError      = "error"
)

// Notifier receives session events; the WebSocket hub implements it.
type Notifier interface {
	Publish(sessionID uuid.UUID, event Event)
}

// Session owns one storyboard with its phase machine, playback state and
// generation token. All fields behind mu; the mutex stands in for the
// single-threaded event loop a browser app gets for free.
type Session struct {
	ID uuid.UUID

	mu         sync.Mutex
	board      model.Storyboard
	phase      Phase
	current    int
	playing    bool
	playCancel context.CancelFunc
	genToken   uuid.UUID
	progress   int
	lastError  string

	// tick is the real-time length of one scene-duration second.
	// Tests shorten it.
	tick   time.Duration
	notify func(Event)
}

func newSession(id uuid.UUID, notify func(Event)) *Session {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Session{
		ID:     id,
		phase:  PhaseInput,
		tick:   time.Second,
		notify: notify,
	}
}

// Snapshot is the wire representation of a session.
type Snapshot struct {
	ID           string        `json:"id"`
	Phase        Phase         `json:"phase"`
	Title        string        `json:"title,omitempty"`
	Scenes       []model.Scene `json:"scenes"`
	CurrentScene int           `json:"currentScene"`
	Progress     int           `json:"progress"`
	Error        string        `json:"error,omitempty"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	phase := s.phase
	if phase == PhaseEditing && s.playing {
		phase = PhasePreviewing
	}
	board := s.board.Clone()
	scenes := board.Scenes
	if scenes == nil {
		scenes = []model.Scene{}
	}
	return Snapshot{
		ID:           s.ID.String(),
		Phase:        phase,
		Title:        board.Title,
		Scenes:       scenes,
		CurrentScene: s.current,
		Progress:     s.progress,
		Error:        s.lastError,
	}
}

// --- generation state transitions, driven by the Generator ---

// beginGeneration arms a fresh generation token. Only a session that has
// no storyboard yet can start generating.
func (s *Session) beginGeneration() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInput {
		return uuid.Nil, model.ErrWrongPhase
	}
	s.phase = PhaseGenerating
	s.genToken = uuid.New()
	s.progress = 0
	s.lastError = ""
	s.notify(Event{Type: EventPhase, Phase: PhaseGenerating})
	return s.genToken, nil
}

// setStoryboard installs the generated story. A stale token means the
// session was deleted or reset while the story call ran; the result is
// dropped.
func (s *Session) setStoryboard(token uuid.UUID, board *model.Storyboard) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.genToken || s.phase != PhaseGenerating {
		return false
	}
	s.board = board.Clone()
	s.current = 0
	s.notify(Event{Type: EventGeneration, Phase: PhaseGenerating, Message: s.board.Title})
	return true
}

// applyGeneratedImage attaches an image to a scene, unless the result is
// stale or the scene vanished in the meantime.
func (s *Session) applyGeneratedImage(token uuid.UUID, sceneID int, dataURI string, progress int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.genToken {
		return false
	}
	idx := s.board.SceneIndex(sceneID)
	if idx < 0 {
		return false
	}
	s.board.Scenes[idx].ImageURL = dataURI
	s.progress = progress
	s.notify(Event{Type: EventGeneration, Phase: s.phase, Progress: progress, Scene: idx})
	return true
}

// finishGeneration moves the session into editing. Scenes whose image
// failed stay imageless; generation does not retry.
func (s *Session) finishGeneration(token uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.genToken || s.phase != PhaseGenerating {
		return false
	}
	s.phase = PhaseEditing
	s.progress = 100
	s.notify(Event{Type: EventPhase, Phase: PhaseEditing, Progress: 100})
	return true
}

// failGeneration returns the session to input with a user-facing error.
func (s *Session) failGeneration(token uuid.UUID, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.genToken || s.phase != PhaseGenerating {
		return false
	}
	s.phase = PhaseInput
	s.lastError = "Fehler: " + err.Error()
	s.notify(Event{Type: EventError, Phase: PhaseInput, Message: s.lastError})
	return true
}

// invalidate cuts off in-flight generation results and stops playback.
// Called when the session is deleted.
func (s *Session) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genToken = uuid.Nil
	s.stopPlaybackLocked()
}

// --- editing mutators ---

// UpdateNarration replaces a scene's narration text.
func (s *Session) UpdateNarration(sceneID int, narration string) error {
	narration = strings.TrimSpace(narration)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditingLocked(); err != nil {
		return err
	}
	idx := s.board.SceneIndex(sceneID)
	if idx < 0 {
		return model.ErrSceneNotFound
	}
	s.board.Scenes[idx].Narration = narration
	return nil
}

// UpdateDuration sets a scene's duration, clamped to the allowed range.
func (s *Session) UpdateDuration(sceneID int, duration int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditingLocked(); err != nil {
		return err
	}
	idx := s.board.SceneIndex(sceneID)
	if idx < 0 {
		return model.ErrSceneNotFound
	}
	s.board.Scenes[idx].Duration = model.ClampDuration(duration)
	return nil
}

// MoveScene reorders the storyboard. The viewer follows the moved scene
// to its new position.
func (s *Session) MoveScene(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditingLocked(); err != nil {
		return err
	}
	if err := s.board.MoveScene(from, to); err != nil {
		return err
	}
	s.current = to
	return nil
}

// DeleteScene removes a scene and returns its image data URI so the
// caller can evict the decoded-image cache.
func (s *Session) DeleteScene(sceneID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditingLocked(); err != nil {
		return "", err
	}
	idx := s.board.SceneIndex(sceneID)
	if idx < 0 {
		return "", model.ErrSceneNotFound
	}
	removedImage := s.board.Scenes[idx].ImageURL
	if err := s.board.DeleteScene(idx); err != nil {
		return "", err
	}
	if s.current >= len(s.board.Scenes) {
		s.current = len(s.board.Scenes) - 1
	}
	return removedImage, nil
}

// applyRegeneration swaps a scene's image and image prompt. Narration and
// duration are untouched. Returns the replaced data URI.
func (s *Session) applyRegeneration(sceneID int, imageURL, imagePrompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditingLocked(); err != nil {
		return "", err
	}
	idx := s.board.SceneIndex(sceneID)
	if idx < 0 {
		return "", model.ErrSceneNotFound
	}
	old := s.board.Scenes[idx].ImageURL
	s.board.Scenes[idx].ImageURL = imageURL
	s.board.Scenes[idx].ImagePrompt = imagePrompt
	s.notify(Event{Type: EventGeneration, Phase: s.phase, Scene: idx})
	return old, nil
}

// sceneNarration reads a scene's narration, editing phase only.
func (s *Session) sceneNarration(sceneID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditingLocked(); err != nil {
		return "", err
	}
	idx := s.board.SceneIndex(sceneID)
	if idx < 0 {
		return "", model.ErrSceneNotFound
	}
	return s.board.Scenes[idx].Narration, nil
}

// requireEditingLocked gates every mutator: only an editing session may
// change its storyboard. Editing while the playback timer runs is fine,
// it reads the board under the same lock.
func (s *Session) requireEditingLocked() error {
	if s.phase != PhaseEditing {
		return model.ErrWrongPhase
	}
	return nil
}

// --- export state transitions ---

// beginExport freezes the session and hands out an immutable copy of the
// storyboard. Playback is stopped first.
func (s *Session) beginExport() (model.Storyboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return model.Storyboard{}, model.ErrWrongPhase
	}
	if len(s.board.Scenes) == 0 {
		return model.Storyboard{}, model.ErrSceneNotFound
	}
	s.stopPlaybackLocked()
	s.phase = PhaseExporting
	s.progress = 0
	s.lastError = ""
	s.notify(Event{Type: EventPhase, Phase: PhaseExporting})
	return s.board.Clone(), nil
}

// setExportProgress forwards pipeline progress to subscribers.
func (s *Session) setExportProgress(pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseExporting || pct < s.progress {
		return
	}
	s.progress = pct
	s.notify(Event{Type: EventExport, Phase: PhaseExporting, Progress: pct})
}

// finishExport returns the session to editing whether the export worked
// or not; the storyboard itself is untouched either way.
func (s *Session) finishExport(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseExporting {
		return
	}
	s.phase = PhaseEditing
	if err != nil {
		s.lastError = "Fehler: " + err.Error()
		s.notify(Event{Type: EventError, Phase: PhaseEditing, Message: s.lastError})
		return
	}
	s.progress = 100
	s.notify(Event{Type: EventExport, Phase: PhaseEditing, Progress: 100})
}
