package scene

import "github.com/Carmen-Shannon/oxy-scene/common"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithBackground sets the initial clear color. Defaults to white.
//
// Parameters:
//   - c: the background color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(c common.Rgb) SceneBuilderOption {
	return func(s *scene) {
		s.background = c
	}
}

// WithPrepareWorkers sets the number of worker goroutines used by Prepare.
// Defaults to runtime.NumCPU().
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPrepareWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.prepareWorkers = n
	}
}
