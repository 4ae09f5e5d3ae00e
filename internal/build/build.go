// Package build runs the configure/build/install step for a recipe and
// caches the result per host settings combination.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/goplus/isp/internal/env"
	"github.com/goplus/isp/mod/module"
	"github.com/goplus/isp/pkgs/buildsys"
	"github.com/goplus/isp/recipe"
	"github.com/goplus/isp/x/cmake"
)

// ToolchainName is the file written into the generators directory when the
// recipe enables the CMakeToolchain generator.
const ToolchainName = "isp_toolchain.cmake"

// Layout holds the directories of a single build.
type Layout struct {
	SourceDir     string
	BuildDir      string
	GeneratorsDir string
	InstallDir    string
	BuildType     string

	// Toolchain is empty when the recipe does not generate one.
	Toolchain string
}

// Options configures a Builder.
type Options struct {
	SourceDir    string
	WorkspaceDir string // defaults to env.WorkspaceDir()
	DepsDir      string // defaults to env.DepsDir()
	BuildType    string // defaults to recipe.DefaultBuildType
	Force        bool   // rebuild even on a cache hit
	Logger       hclog.Logger

	// NewBuildSystem creates the build system for a layout. Defaults to CMake.
	NewBuildSystem func(l Layout) buildsys.BuildSystem
}

// Result describes a finished (or cached) build.
type Result struct {
	Ref         module.Version
	Matrix      string
	InstallDir  string
	BuildTime   time.Time
	Fingerprint string
	Cached      bool
}

type Builder struct {
	L hclog.Logger

	sourceDir      string
	workspaceDir   string
	depsDir        string
	buildType      string
	force          bool
	newBuildSystem func(l Layout) buildsys.BuildSystem
}

func NewBuilder(opts Options) (*Builder, error) {
	b := &Builder{
		L:              opts.Logger,
		sourceDir:      opts.SourceDir,
		workspaceDir:   opts.WorkspaceDir,
		depsDir:        opts.DepsDir,
		buildType:      opts.BuildType,
		force:          opts.Force,
		newBuildSystem: opts.NewBuildSystem,
	}
	if b.L == nil {
		b.L = hclog.L()
	}
	if b.sourceDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		b.sourceDir = wd
	}
	src, err := filepath.Abs(b.sourceDir)
	if err != nil {
		return nil, err
	}
	b.sourceDir = src
	if b.workspaceDir == "" {
		if b.workspaceDir, err = env.WorkspaceDir(); err != nil {
			return nil, err
		}
	}
	if b.depsDir == "" {
		if b.depsDir, err = env.DepsDir(); err != nil {
			return nil, err
		}
	}
	if b.buildType == "" {
		b.buildType = recipe.DefaultBuildType
	}
	if b.newBuildSystem == nil {
		b.newBuildSystem = b.newCMake
	}
	return b, nil
}

func (b *Builder) newCMake(l Layout) buildsys.BuildSystem {
	c := cmake.New(l.SourceDir, l.BuildDir, l.InstallDir)
	c.L = b.L.Named("cmake")
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.BuildType(l.BuildType)
	if l.Toolchain != "" {
		c.Toolchain(l.Toolchain)
	}
	return c
}

// Build configures, builds and installs the project described by r. A
// previous build of the same version, settings and recipe content is
// reused unless the builder was created with Force.
func (b *Builder) Build(ctx context.Context, r *recipe.Recipe) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	ref := r.Ref()
	host := r.HostSettings(b.buildType)
	matrix := host.Key()

	fingerprint, err := Fingerprint(r, b.buildType)
	if err != nil {
		return nil, err
	}
	installDir, err := b.installDir(ref, matrix)
	if err != nil {
		return nil, err
	}
	cacheDir, err := b.cacheDir(ref.Path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}

	unlock, err := lockFile(ctx, filepath.Join(cacheDir, ".lock"))
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", ref, err)
	}
	defer unlock()

	// Check the cache after acquiring the lock, another process may have built it.
	cache, err := b.loadCache(ref.Path)
	if err != nil {
		cache = &buildCache{}
	}
	if entry, ok := cache.get(ref.Version, matrix); ok && !b.force && entry.Fingerprint == fingerprint {
		if _, err := os.Stat(installDir); err == nil {
			b.L.Info("using cached build", "ref", ref.String(), "matrix", matrix, "dir", installDir)
			return &Result{
				Ref:         ref,
				Matrix:      matrix,
				InstallDir:  installDir,
				BuildTime:   entry.BuildTime,
				Fingerprint: entry.Fingerprint,
				Cached:      true,
			}, nil
		}
	}

	layout := Layout{
		SourceDir:     b.sourceDir,
		BuildDir:      filepath.Join(b.sourceDir, "build", b.buildType),
		InstallDir:    installDir,
		BuildType:     b.buildType,
		GeneratorsDir: filepath.Join(b.sourceDir, "build", b.buildType, "generators"),
	}
	roots, err := b.DepRoots(r)
	if err != nil {
		return nil, err
	}
	if r.HasGenerator("CMakeToolchain") {
		layout.Toolchain = filepath.Join(layout.GeneratorsDir, ToolchainName)
		if err := toolchainFor(r, host, roots, b.buildType).Write(layout.Toolchain); err != nil {
			return nil, fmt.Errorf("write toolchain: %w", err)
		}
	}

	// Use mutates the process environment; restore it once the build is done.
	savedEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, e := range savedEnv {
			if k, v, ok := strings.Cut(e, "="); ok {
				os.Setenv(k, v)
			}
		}
	}()

	bs := b.newBuildSystem(layout)
	for _, root := range roots {
		bs.Use(root)
	}

	b.L.Info("building", "ref", ref.String(), "matrix", matrix, "build_dir", layout.BuildDir)
	if err := os.RemoveAll(installDir); err != nil {
		return nil, err
	}
	if err := bs.Configure(ctx); err != nil {
		return nil, fmt.Errorf("configure %s: %w", ref, err)
	}
	if err := bs.Build(ctx); err != nil {
		return nil, fmt.Errorf("build %s: %w", ref, err)
	}
	if err := bs.Install(ctx); err != nil {
		return nil, fmt.Errorf("install %s: %w", ref, err)
	}

	entry := &buildEntry{
		Metadata:    ref.String(),
		BuildTime:   time.Now(),
		Fingerprint: fingerprint,
	}
	cache.set(ref.Version, matrix, entry)
	if err := b.saveCache(ref.Path, cache); err != nil {
		return nil, err
	}
	b.L.Info("build finished", "ref", ref.String(), "dir", installDir)

	return &Result{
		Ref:         ref,
		Matrix:      matrix,
		InstallDir:  installDir,
		BuildTime:   entry.BuildTime,
		Fingerprint: fingerprint,
	}, nil
}

// DepRoots returns the install roots of the recipe's requirements that are
// present under the deps directory, laid out as <deps>/<name>/<version>.
// Missing roots are logged and skipped.
func (b *Builder) DepRoots(r *recipe.Recipe) ([]string, error) {
	var roots []string
	for _, req := range r.Requires {
		escaped, err := module.EscapePath(req.Path)
		if err != nil {
			return nil, err
		}
		root := filepath.Join(b.depsDir, escaped, req.Version)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			b.L.Warn("dependency not installed", "ref", req.String(), "dir", root)
			continue
		}
		roots = append(roots, root)
	}
	return roots, nil
}

func toolchainFor(r *recipe.Recipe, host recipe.Matrix, roots []string, buildType string) *cmake.ToolchainFile {
	tc := &cmake.ToolchainFile{
		Header:      fmt.Sprintf("Generated by isp for %s, do not edit.", r.Ref()),
		BuildType:   buildType,
		Settings:    make(map[string]string, len(host.Require)),
		PrefixPaths: roots,
	}
	for k, v := range host.Require {
		tc.Settings[k] = v[0]
	}
	for _, req := range r.Requires {
		for _, o := range r.OptionsFor(req) {
			key := cmake.Identifier(req.Path + "_" + o.Name)
			doc := fmt.Sprintf("%s option %s", req.Path, o.Name)
			if o.Kind == recipe.Bool {
				tc.Cache = append(tc.Cache, cmake.BoolEntry(key, o.Bool(), doc))
				continue
			}
			tc.Cache = append(tc.Cache, cmake.CacheEntry{Key: key, Type: "STRING", Value: o.Value, Doc: doc})
		}
	}
	return tc
}
