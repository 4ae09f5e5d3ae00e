package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/goplus/isp/recipe"
)

type testEnv struct {
	src, workspace, deps string
	factory              *fakeFactory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		src:       t.TempDir(),
		workspace: t.TempDir(),
		deps:      t.TempDir(),
		factory:   &fakeFactory{},
	}
}

func (e *testEnv) builder(t *testing.T, force bool) *Builder {
	t.Helper()
	b, err := NewBuilder(Options{
		SourceDir:      e.src,
		WorkspaceDir:   e.workspace,
		DepsDir:        e.deps,
		Force:          force,
		Logger:         hclog.NewNullLogger(),
		NewBuildSystem: e.factory.new,
	})
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return b
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the lifecycle and caches", func(t *testing.T) {
		e := newTestEnv(t)
		opencv := filepath.Join(e.deps, "opencv", "4.5.5")
		if err := os.MkdirAll(opencv, 0o755); err != nil {
			t.Fatal(err)
		}

		r := recipe.Default()
		res, err := e.builder(t, false).Build(ctx, r)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if res.Cached {
			t.Error("first build reported as cached")
		}
		if len(e.factory.built) != 1 {
			t.Fatalf("got %d build systems, want 1", len(e.factory.built))
		}
		fake := e.factory.built[0]
		if got := strings.Join(fake.calls, " "); got != "configure build install" {
			t.Errorf("calls = %q, want %q", got, "configure build install")
		}
		if len(fake.used) != 1 || fake.used[0] != opencv {
			t.Errorf("used = %v, want [%s]", fake.used, opencv)
		}

		wantBuildDir := filepath.Join(e.src, "build", recipe.DefaultBuildType)
		if fake.layout.BuildDir != wantBuildDir {
			t.Errorf("BuildDir = %q, want %q", fake.layout.BuildDir, wantBuildDir)
		}
		wantInstall := filepath.Join(e.workspace, "ISPProject@1.0-"+res.Matrix)
		if res.InstallDir != wantInstall {
			t.Errorf("InstallDir = %q, want %q", res.InstallDir, wantInstall)
		}
		if _, err := os.Stat(filepath.Join(res.InstallDir, "bin", "isp_cli")); err != nil {
			t.Errorf("installed file missing: %v", err)
		}

		data, err := os.ReadFile(fake.layout.Toolchain)
		if err != nil {
			t.Fatalf("toolchain not written: %v", err)
		}
		for _, want := range []string{
			`set(CMAKE_BUILD_TYPE "Release" CACHE STRING "Build type")`,
			`set(OPENCV_SHARED "ON" CACHE BOOL`,
			`set(OPENCV_WITH_CONTRIB "ON" CACHE BOOL`,
			`ISP_SETTING_BUILD_TYPE "Release"`,
			filepath.ToSlash(opencv),
		} {
			if !strings.Contains(string(data), want) {
				t.Errorf("toolchain missing %q:\n%s", want, data)
			}
		}

		again, err := e.builder(t, false).Build(ctx, r)
		if err != nil {
			t.Fatalf("second Build failed: %v", err)
		}
		if !again.Cached {
			t.Error("second build not served from cache")
		}
		if len(e.factory.built) != 1 {
			t.Errorf("cache hit created a build system")
		}
		if again.Fingerprint != res.Fingerprint {
			t.Errorf("fingerprint changed: %s != %s", again.Fingerprint, res.Fingerprint)
		}
	})

	t.Run("force rebuilds", func(t *testing.T) {
		e := newTestEnv(t)
		r := recipe.Default()
		if _, err := e.builder(t, false).Build(ctx, r); err != nil {
			t.Fatal(err)
		}
		res, err := e.builder(t, true).Build(ctx, r)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached || len(e.factory.built) != 2 {
			t.Errorf("forced build was served from cache")
		}
	})

	t.Run("recipe change invalidates cache", func(t *testing.T) {
		e := newTestEnv(t)
		r := recipe.Default()
		if _, err := e.builder(t, false).Build(ctx, r); err != nil {
			t.Fatal(err)
		}
		r.DefaultOptions = append(r.DefaultOptions, recipe.BoolOption("opencv/*:with_cuda", false))
		res, err := e.builder(t, false).Build(ctx, r)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Error("changed recipe was served from cache")
		}
	})

	t.Run("removed install dir rebuilds", func(t *testing.T) {
		e := newTestEnv(t)
		r := recipe.Default()
		res, err := e.builder(t, false).Build(ctx, r)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.RemoveAll(res.InstallDir); err != nil {
			t.Fatal(err)
		}
		res, err = e.builder(t, false).Build(ctx, r)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Error("missing install dir was served from cache")
		}
	})

	t.Run("no toolchain without generator", func(t *testing.T) {
		e := newTestEnv(t)
		r := recipe.Default()
		r.Generators = []string{"CMakeDeps"}
		if _, err := e.builder(t, false).Build(ctx, r); err != nil {
			t.Fatal(err)
		}
		if tc := e.factory.built[0].layout.Toolchain; tc != "" {
			t.Errorf("Toolchain = %q, want empty", tc)
		}
	})

	t.Run("recipe without settings", func(t *testing.T) {
		for _, settings := range [][]string{nil, {"compiler.version", "compiler.cppstd"}} {
			e := newTestEnv(t)
			r, err := recipe.Parse([]byte("name: ISPProject\nversion: \"1.0\"\nrequires: [opencv/4.5.5]\n"))
			if err != nil {
				t.Fatal(err)
			}
			r.Settings = settings
			res, err := e.builder(t, false).Build(ctx, r)
			if err != nil {
				t.Fatalf("settings %v: Build failed: %v", settings, err)
			}
			if res.Matrix != recipe.NoSettings {
				t.Errorf("settings %v: Matrix = %q, want %q", settings, res.Matrix, recipe.NoSettings)
			}
			want := filepath.Join(e.workspace, "ISPProject@1.0-"+recipe.NoSettings)
			if res.InstallDir != want {
				t.Errorf("settings %v: InstallDir = %q, want %q", settings, res.InstallDir, want)
			}
			again, err := e.builder(t, false).Build(ctx, r)
			if err != nil {
				t.Fatal(err)
			}
			if !again.Cached {
				t.Errorf("settings %v: second build not served from cache", settings)
			}
		}
	})

	t.Run("invalid recipe", func(t *testing.T) {
		e := newTestEnv(t)
		r := recipe.Default()
		r.Name = ""
		if _, err := e.builder(t, false).Build(ctx, r); err == nil {
			t.Fatal("expected error for invalid recipe")
		}
		if len(e.factory.built) != 0 {
			t.Error("invalid recipe reached the build system")
		}
	})

	t.Run("failed step is not cached", func(t *testing.T) {
		e := newTestEnv(t)
		e.factory.fail = "build"
		r := recipe.Default()
		_, err := e.builder(t, false).Build(ctx, r)
		if err == nil || !strings.Contains(err.Error(), "build failed") {
			t.Fatalf("err = %v, want build failure", err)
		}
		if got := strings.Join(e.factory.built[0].calls, " "); got != "configure build" {
			t.Errorf("calls = %q", got)
		}
		e.factory.fail = ""
		res, err := e.builder(t, false).Build(ctx, r)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Error("failed build was cached")
		}
	})
}

func TestDepRoots(t *testing.T) {
	e := newTestEnv(t)
	cli11 := filepath.Join(e.deps, "cli11", "2.2.0")
	if err := os.MkdirAll(cli11, 0o755); err != nil {
		t.Fatal(err)
	}
	roots, err := e.builder(t, false).DepRoots(recipe.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || roots[0] != cli11 {
		t.Errorf("roots = %v, want [%s]", roots, cli11)
	}
}

func TestFingerprint(t *testing.T) {
	r := recipe.Default()
	a, err := Fingerprint(r, "Release")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Fingerprint(recipe.Default(), "Release")
	c, _ := Fingerprint(r, "Debug")
	if a != b {
		t.Errorf("fingerprint not stable: %s != %s", a, b)
	}
	if a == c {
		t.Error("build type does not change the fingerprint")
	}
	if len(a) != 16 {
		t.Errorf("fingerprint %q is not 16 hex digits", a)
	}
}
