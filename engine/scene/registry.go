package scene

import (
	"fmt"
	"reflect"

	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
)

// Add stores d in s, reusing the lowest vacated slot if there is one, and returns its handle.
//
// Parameters:
//   - s: the scene taking ownership of d
//   - d: the drawable
//
// Returns:
//   - MeshID[T]: the handle, valid until the drawable is removed
func Add[T mesh.Drawable](s Scene, d T) MeshID[T] {
	if any(d) == nil {
		panic("scene: Add requires a drawable")
	}
	return MeshID[T]{h: s.insert(d)}
}

// Remove takes the drawable out of s and hands ownership back to the caller. The slot
// becomes reusable and id, along with every copy of it, stops resolving.
//
// Parameters:
//   - s: the scene
//   - id: the handle returned by Add
//
// Returns:
//   - T: the removed drawable
//   - error: one of the handle misuse errors
func Remove[T mesh.Drawable](s Scene, id MeshID[T]) (T, error) {
	var zero T
	d, err := s.load(id.h)
	if err != nil {
		return zero, err
	}
	if _, ok := d.(T); !ok {
		return zero, typeMismatch[T](id, d)
	}
	d, err = s.take(id.h)
	if err != nil {
		return zero, err
	}
	return d.(T), nil
}

// Get returns the drawable id refers to.
//
// Parameters:
//   - s: the scene
//   - id: the handle returned by Add
//
// Returns:
//   - T: the drawable
//   - error: one of the handle misuse errors
func Get[T mesh.Drawable](s Scene, id MeshID[T]) (T, error) {
	var zero T
	d, err := s.load(id.h)
	if err != nil {
		return zero, err
	}
	v, ok := d.(T)
	if !ok {
		return zero, typeMismatch[T](id, d)
	}
	return v, nil
}

// GetMut calls fn with a pointer to the drawable id refers to and stores the result back.
// fn runs without the scene lock held.
//
// Parameters:
//   - s: the scene
//   - id: the handle returned by Add
//   - fn: the mutation
//
// Returns:
//   - error: one of the handle misuse errors, checked both before and after fn runs
func GetMut[T mesh.Drawable](s Scene, id MeshID[T], fn func(*T)) error {
	v, err := Get(s, id)
	if err != nil {
		return err
	}
	fn(&v)
	if any(v) == nil {
		return fmt.Errorf("scene: %s: mutation cleared the drawable", id)
	}
	return s.store(id.h, v)
}

// MustRemove is Remove that panics on handle misuse.
func MustRemove[T mesh.Drawable](s Scene, id MeshID[T]) T {
	v, err := Remove(s, id)
	if err != nil {
		panic(err)
	}
	return v
}

// MustGet is Get that panics on handle misuse.
func MustGet[T mesh.Drawable](s Scene, id MeshID[T]) T {
	v, err := Get(s, id)
	if err != nil {
		panic(err)
	}
	return v
}

// MustGetMut is GetMut that panics on handle misuse.
func MustGetMut[T mesh.Drawable](s Scene, id MeshID[T], fn func(*T)) {
	if err := GetMut(s, id, fn); err != nil {
		panic(err)
	}
}

func typeMismatch[T mesh.Drawable](id MeshID[T], d mesh.Drawable) error {
	return fmt.Errorf("%w: %s holds %T, handle expects %s", ErrTypeMismatch, id, d, reflect.TypeFor[T]())
}
