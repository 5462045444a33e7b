package model

import "errors"

// Sentinel errors shared between services and the HTTP layer. Handlers map
// them to status codes in one place.
var (
	// ErrSessionNotFound: no session with the requested ID exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSceneNotFound: the storyboard has no scene with the requested ID.
	ErrSceneNotFound = errors.New("scene not found")
	// ErrInvalidIndex: a move/delete index falls outside the scene list.
	ErrInvalidIndex = errors.New("invalid scene index")
	// ErrLastScene: deleting the only remaining scene is not allowed.
	ErrLastScene = errors.New("cannot delete the last scene")
	// ErrWrongPhase: the operation is not valid in the session's current phase.
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	// ErrEmptyIdea: a story was requested without an idea text.
	ErrEmptyIdea = errors.New("idea must not be empty")
	// ErrIdeaTooLong: the idea text exceeds the configured token budget.
	ErrIdeaTooLong = errors.New("idea exceeds token budget")
	// ErrEmptyPrompt: an image was requested without a prompt.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrNoImage: the image backend answered without image data.
	ErrNoImage = errors.New("no image data in response")
	// ErrStorySchema: the model reply did not contain a usable storyboard.
	ErrStorySchema = errors.New("story response failed validation")
)
