package model

// DefaultSceneDuration is applied to every freshly generated scene.
const DefaultSceneDuration = 3

// Duration bounds for a single scene, in seconds.
const (
	MinSceneDuration = 1
	MaxSceneDuration = 10
)

// Scene is one frame of a storyboard. ImageURL holds a data URI
// (data:image/png;base64,...) or the empty string while no image exists.
type Scene struct {
	ID          int    `json:"id"`
	Narration   string `json:"narration"`
	ImagePrompt string `json:"imagePrompt"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Duration    int    `json:"duration"`
}

// HasImage reports whether the scene carries a generated image.
func (s Scene) HasImage() bool {
	return s.ImageURL != ""
}

// ClampDuration forces d into the allowed per-scene range.
func ClampDuration(d int) int {
	if d < MinSceneDuration {
		return MinSceneDuration
	}
	if d > MaxSceneDuration {
		return MaxSceneDuration
	}
	return d
}

// Storyboard is an ordered list of scenes under a title. Slice order is
// presentation order; scene IDs are stable labels, not positions.
type Storyboard struct {
	Title  string  `json:"title"`
	Scenes []Scene `json:"scenes"`
}

// TotalDuration returns the length of the exported video in seconds.
func (b *Storyboard) TotalDuration() int {
	total := 0
	for _, s := range b.Scenes {
		total += s.Duration
	}
	return total
}

// SceneIndex returns the position of the scene with the given ID, or -1.
func (b *Storyboard) SceneIndex(id int) int {
	for i, s := range b.Scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// MoveScene relocates the scene at index from to index to, shifting the
// scenes in between. Both indices must be valid positions.
func (b *Storyboard) MoveScene(from, to int) error {
	n := len(b.Scenes)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrInvalidIndex
	}
	if from == to {
		return nil
	}
	moved := b.Scenes[from]
	rest := append(b.Scenes[:from], b.Scenes[from+1:]...)
	b.Scenes = append(rest[:to], append([]Scene{moved}, rest[to:]...)...)
	return nil
}

// DeleteScene removes the scene at the given index. A storyboard never
// shrinks below one scene.
func (b *Storyboard) DeleteScene(index int) error {
	if index < 0 || index >= len(b.Scenes) {
		return ErrInvalidIndex
	}
	if len(b.Scenes) == 1 {
		return ErrLastScene
	}
	b.Scenes = append(b.Scenes[:index], b.Scenes[index+1:]...)
	return nil
}

// Clone returns a deep copy, safe to read after the original keeps mutating.
func (b *Storyboard) Clone() Storyboard {
	scenes := make([]Scene, len(b.Scenes))
	copy(scenes, b.Scenes)
	return Storyboard{Title: b.Title, Scenes: scenes}
}
