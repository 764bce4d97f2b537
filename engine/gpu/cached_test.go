package gpu_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifact struct {
	buffer gpu.Buffer
}

func bufferDerivation(payload []byte) gpu.DeriveFunc[artifact] {
	return func(dev gpu.Device, _ wgpu.TextureFormat) (*artifact, error) {
		buf, err := dev.CreateBuffer(&gpu.BufferDescriptor{
			Label:    "Test Buffer",
			Usage:    wgpu.BufferUsageVertex,
			Contents: payload,
		})
		if err != nil {
			return nil, err
		}
		return &artifact{buffer: buf}, nil
	}
}

func TestCachedRealizesOnce(t *testing.T) {
	dev := gputest.NewDevice()
	c := gpu.NewCached(bufferDerivation([]byte{1, 2, 3, 4}))
	assert.False(t, c.Realized())
	assert.Nil(t, c.Peek())

	first, err := c.Realize(dev, wgpu.TextureFormatBGRA8UnormSrgb)
	require.NoError(t, err)
	for range 10 {
		again, err := c.Realize(dev, wgpu.TextureFormatBGRA8UnormSrgb)
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
	assert.True(t, c.Realized())
	assert.Same(t, first, c.Peek())
	assert.Equal(t, 1, dev.Count(gputest.KindBuffer))
}

func TestCachedConcurrentRealize(t *testing.T) {
	dev := gputest.NewDevice()
	dev.CreateDelay = 5 * time.Millisecond
	c := gpu.NewCached(bufferDerivation([]byte{1, 2, 3, 4}))

	const callers = 64
	results := make([]*artifact, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			a, err := c.Realize(dev, wgpu.TextureFormatBGRA8UnormSrgb)
			assert.NoError(t, err)
			results[i] = a
		}()
	}
	close(start)
	wg.Wait()

	require.NotNil(t, results[0])
	for _, a := range results {
		assert.Same(t, results[0], a)
	}
	assert.Equal(t, 1, dev.Count(gputest.KindBuffer))
}

func TestCachedFailureIsNotCached(t *testing.T) {
	dev := gputest.NewDevice()
	boom := errors.New("out of device memory")
	dev.Fail(gputest.KindBuffer, boom)

	c := gpu.NewCached(bufferDerivation([]byte{1, 2, 3, 4}))
	a, err := c.Realize(dev, wgpu.TextureFormatBGRA8UnormSrgb)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, a)
	assert.False(t, c.Realized())

	dev.Fail(gputest.KindBuffer, nil)
	a, err = c.Realize(dev, wgpu.TextureFormatBGRA8UnormSrgb)
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Equal(t, 1, dev.Count(gputest.KindBuffer))
}

func TestCachedNilArtifactIsAnError(t *testing.T) {
	c := gpu.NewCached(func(gpu.Device, wgpu.TextureFormat) (*artifact, error) { return nil, nil })
	_, err := c.Realize(gputest.NewDevice(), wgpu.TextureFormatBGRA8UnormSrgb)
	assert.Error(t, err)
	assert.False(t, c.Realized())
}

func TestNewCachedRequiresDerivation(t *testing.T) {
	assert.Panics(t, func() { gpu.NewCached[artifact](nil) })
}
