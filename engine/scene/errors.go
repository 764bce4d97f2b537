package scene

import "errors"

// Handle misuse errors. Every lookup and removal reports exactly one of these; the Must*
// variants panic with the same error.
var (
	// ErrForeignHandle means the handle was issued by a different scene.
	ErrForeignHandle = errors.New("scene: handle belongs to another scene")

	// ErrInvalidHandle means the handle's slot index was never issued by this scene.
	ErrInvalidHandle = errors.New("scene: handle refers to no slot")

	// ErrEmptySlot means the slot was removed and not reused since.
	ErrEmptySlot = errors.New("scene: slot is empty")

	// ErrStaleHandle means the slot was removed and has since been reused by another entry.
	ErrStaleHandle = errors.New("scene: handle is stale")

	// ErrTypeMismatch means the slot holds a drawable of a different concrete type.
	ErrTypeMismatch = errors.New("scene: drawable type mismatch")
)
