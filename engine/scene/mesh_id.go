package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
)

// handle locates one slot of one scene at one generation.
type handle struct {
	scene      uint64
	index      uint32
	generation uint32
}

// MeshID is a typed handle to a drawable stored in a Scene. It carries the identity of
// the scene that issued it and the generation of its slot, so it can never resolve to
// an entry added after its own was removed. The zero MeshID is invalid in every scene.
type MeshID[T mesh.Drawable] struct {
	h handle
}

// Index returns the slot index. Draws happen in ascending index order.
func (id MeshID[T]) Index() uint32 {
	return id.h.index
}

// Generation returns how many times the slot had been vacated when the handle was issued.
func (id MeshID[T]) Generation() uint32 {
	return id.h.generation
}

// Scene returns the identity of the scene that issued the handle.
func (id MeshID[T]) Scene() uint64 {
	return id.h.scene
}

func (id MeshID[T]) String() string {
	return fmt.Sprintf("MeshID(scene=%d, index=%d, gen=%d)", id.h.scene, id.h.index, id.h.generation)
}

// As reinterprets a handle as a handle to another drawable type. Lookups through the
// result fail with ErrTypeMismatch unless the slot actually holds a U.
//
// Parameters:
//   - id: the handle to convert
//
// Returns:
//   - MeshID[U]: a handle to the same slot and generation
func As[U, T mesh.Drawable](id MeshID[T]) MeshID[U] {
	return MeshID[U]{h: id.h}
}
