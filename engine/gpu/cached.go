package gpu

import (
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// DeriveFunc builds a GPU artifact from a CPU-side description.
// It is the only place device allocation for that description happens.
type DeriveFunc[T any] func(dev Device, format wgpu.TextureFormat) (*T, error)

// Cached memoizes one artifact derived on first use.
// At most one artifact is ever created per Cached; every later Realize, sequential or
// concurrent, returns the same pointer. A failed derivation stores nothing.
//
// The device and format must not change across calls: the first successful
// derivation wins and later arguments are ignored.
type Cached[T any] struct {
	derive DeriveFunc[T]
	mu     *sync.RWMutex
	data   *T
}

// NewCached wraps derive in an empty cache.
//
// Parameters:
//   - derive: the derivation to run on first Realize
//
// Returns:
//   - *Cached[T]: the empty cache
func NewCached[T any](derive DeriveFunc[T]) *Cached[T] {
	if derive == nil {
		panic("gpu: NewCached requires a derive function")
	}
	return &Cached[T]{
		derive: derive,
		mu:     &sync.RWMutex{},
	}
}

// Realize returns the cached artifact, deriving it on the first call.
// The warm path takes only the read lock; the derivation runs under the write lock
// after a second check, so racing callers never derive twice.
//
// Parameters:
//   - dev: the device to allocate on
//   - format: the render target format
//
// Returns:
//   - *T: the shared artifact
//   - error: the derivation error; the cache stays empty so a later call retries
func (c *Cached[T]) Realize(dev Device, format wgpu.TextureFormat) (*T, error) {
	c.mu.RLock()
	data := c.data
	c.mu.RUnlock()
	if data != nil {
		return data, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data != nil {
		return c.data, nil
	}
	data, err := c.derive(dev, format)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("gpu: derivation produced no artifact")
	}
	c.data = data
	return data, nil
}

// Realized reports whether an artifact has been derived.
func (c *Cached[T]) Realized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data != nil
}

// Peek returns the artifact if one was derived, without deriving.
func (c *Cached[T]) Peek() *T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}
