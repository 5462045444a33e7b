package session

import (
	"context"
	"time"

	"storyboard-server/internal/model"
)

// Play starts the slideshow timer from the current scene. Playing an
// already playing session is a no-op.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return model.ErrWrongPhase
	}
	if len(s.board.Scenes) == 0 {
		return model.ErrSceneNotFound
	}
	if s.playing {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.playing = true
	s.playCancel = cancel
	s.notify(Event{Type: EventPlayback, Phase: PhasePreviewing, Scene: s.current})
	go s.runPlayback(ctx)
	return nil
}

// StopPlayback halts the timer; the current scene stays where it is.
func (s *Session) StopPlayback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return model.ErrWrongPhase
	}
	s.stopPlaybackLocked()
	return nil
}

func (s *Session) stopPlaybackLocked() {
	if !s.playing {
		return
	}
	s.playing = false
	if s.playCancel != nil {
		s.playCancel()
		s.playCancel = nil
	}
	s.notify(Event{Type: EventPlayback, Phase: PhaseEditing, Scene: s.current})
}

// NextScene advances manually. Manual navigation stops playback.
func (s *Session) NextScene() error {
	return s.seek(func(current, n int) int { return current + 1 })
}

// PrevScene goes back manually.
func (s *Session) PrevScene() error {
	return s.seek(func(current, n int) int { return current - 1 })
}

// SeekScene jumps to an absolute scene index.
func (s *Session) SeekScene(index int) error {
	return s.seek(func(current, n int) int { return index })
}

func (s *Session) seek(target func(current, n int) int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return model.ErrWrongPhase
	}
	n := len(s.board.Scenes)
	if n == 0 {
		return model.ErrSceneNotFound
	}
	s.stopPlaybackLocked()
	next := target(s.current, n)
	if next < 0 || next >= n {
		return model.ErrInvalidIndex
	}
	s.current = next
	s.notify(Event{Type: EventPlayback, Phase: PhaseEditing, Scene: s.current})
	return nil
}

// CurrentScene returns the index the viewer is on.
func (s *Session) CurrentScene() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentBoard returns a copy of the storyboard with the current index,
// for preview rendering.
func (s *Session) CurrentBoard() (model.Storyboard, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.board.Scenes) == 0 {
		return model.Storyboard{}, 0, model.ErrSceneNotFound
	}
	return s.board.Clone(), s.current, nil
}

// runPlayback shows each scene for its duration, then advances. After the
// last scene it stops and resets to the first one.
func (s *Session) runPlayback(ctx context.Context) {
	for {
		s.mu.Lock()
		if !s.playing || len(s.board.Scenes) == 0 {
			s.mu.Unlock()
			return
		}
		duration := time.Duration(s.board.Scenes[s.current].Duration) * s.tick
		s.mu.Unlock()

		timer := time.NewTimer(duration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.mu.Lock()
		if !s.playing {
			s.mu.Unlock()
			return
		}
		if s.current+1 >= len(s.board.Scenes) {
			// end of the slideshow: stop and rewind
			s.current = 0
			s.playing = false
			s.playCancel = nil
			s.notify(Event{Type: EventPlayback, Phase: PhaseEditing, Scene: 0})
			s.mu.Unlock()
			return
		}
		s.current++
		s.notify(Event{Type: EventPlayback, Phase: PhasePreviewing, Scene: s.current})
		s.mu.Unlock()
	}
}
