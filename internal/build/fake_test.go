package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/goplus/isp/pkgs/buildsys"
)

// fakeBuildSystem records the lifecycle calls and installs a marker file.
type fakeBuildSystem struct {
	layout Layout
	calls  []string
	used   []string
	fail   string
}

var _ buildsys.BuildSystem = (*fakeBuildSystem)(nil)

func (f *fakeBuildSystem) Use(root string)       { f.used = append(f.used, root) }
func (f *fakeBuildSystem) Source(dir string)     { f.layout.SourceDir = dir }
func (f *fakeBuildSystem) InstallDir(dir string) { f.layout.InstallDir = dir }
func (f *fakeBuildSystem) OutputDir() string     { return f.layout.InstallDir }

func (f *fakeBuildSystem) step(name string) error {
	f.calls = append(f.calls, name)
	if f.fail == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeBuildSystem) Configure(ctx context.Context, args ...string) error {
	return f.step("configure")
}

func (f *fakeBuildSystem) Build(ctx context.Context, args ...string) error {
	return f.step("build")
}

func (f *fakeBuildSystem) Install(ctx context.Context, args ...string) error {
	if err := f.step("install"); err != nil {
		return err
	}
	bin := filepath.Join(f.layout.InstallDir, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(bin, "isp_cli"), []byte("exe"), 0o755)
}

// fakeFactory collects every build system the builder creates.
type fakeFactory struct {
	fail  string
	built []*fakeBuildSystem
}

func (ff *fakeFactory) new(l Layout) buildsys.BuildSystem {
	f := &fakeBuildSystem{layout: l, fail: ff.fail}
	ff.built = append(ff.built, f)
	return f
}
