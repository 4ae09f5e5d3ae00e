// Package buildsys defines the capabilities isp needs from an external
// build system.
package buildsys

import "context"

// BuildSystem captures shared capabilities of build helpers (CMake, etc).
// It keeps the common lifecycle and dependency/env setup; implementations add their own extras.
type BuildSystem interface {
	// Use injects a dependency installed at root into the environment.
	Use(root string)

	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
