package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// Surface acquisition failures reported by the presentation layer.
var (
	// ErrSurfaceLost means the surface must be reconfigured before the next acquisition.
	ErrSurfaceLost = errors.New("surface lost")

	// ErrSurfaceOutdated means the surface no longer matches the window and must be reconfigured.
	ErrSurfaceOutdated = errors.New("surface outdated")

	// ErrSurfaceOutOfMemory means the presentation layer ran out of memory. Not recoverable.
	ErrSurfaceOutOfMemory = errors.New("surface out of memory")

	// ErrSurfaceTimeout means no image became available in time.
	ErrSurfaceTimeout = errors.New("surface acquisition timed out")
)

// IsTransient reports whether err is a surface condition that is resolved by
// reconfiguring the surface and skipping the frame.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceOutdated)
}

// ClassifySurfaceError maps an acquisition error from the native binding onto the
// surface error taxonomy. The binding reports the acquisition status only through the
// error text, so classification matches on the status names it uses.
// Errors that match no status are returned unchanged.
//
// Parameters:
//   - err: the error returned by surface acquisition
//
// Returns:
//   - error: err wrapped with the matching sentinel, or err itself
func ClassifySurfaceError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(strings.NewReplacer("_", "", " ", "").Replace(err.Error()))
	var kind error
	switch {
	case strings.Contains(msg, "outofmemory"):
		kind = ErrSurfaceOutOfMemory
	case strings.Contains(msg, "outdated"):
		kind = ErrSurfaceOutdated
	case strings.Contains(msg, "lost"):
		kind = ErrSurfaceLost
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timedout"):
		kind = ErrSurfaceTimeout
	default:
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
