package cmake

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call) Runner {
	return func(ctx context.Context, name string, args []string) error {
		*calls = append(*calls, call{name: name, args: args})
		return nil
	}
}

func TestUseSetsEnv(t *testing.T) {
	root := t.TempDir()
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")
	for _, d := range []string{includeDir, libDir, pkgconfigDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}

	for _, key := range []string{
		"PKG_CONFIG_PATH", "CMAKE_PREFIX_PATH", "CMAKE_INCLUDE_PATH",
		"CMAKE_LIBRARY_PATH", "INCLUDE", "LIB", "CPPFLAGS", "LDFLAGS",
	} {
		t.Setenv(key, "")
	}

	c := New("", "", "")
	c.L = hclog.NewNullLogger()
	c.Use(root)

	for key, want := range map[string]string{
		"PKG_CONFIG_PATH":    pkgconfigDir,
		"CMAKE_PREFIX_PATH":  root,
		"CMAKE_INCLUDE_PATH": includeDir,
		"CMAKE_LIBRARY_PATH": libDir,
	} {
		if got := os.Getenv(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	if runtime.GOOS == "windows" {
		if got := os.Getenv("INCLUDE"); got != includeDir {
			t.Errorf("INCLUDE = %q, want %q", got, includeDir)
		}
	} else {
		if got := os.Getenv("CPPFLAGS"); strings.TrimSpace(got) != "-I"+includeDir {
			t.Errorf("CPPFLAGS = %q, want %q", got, "-I"+includeDir)
		}
		if got := os.Getenv("LDFLAGS"); strings.TrimSpace(got) != "-L"+libDir {
			t.Errorf("LDFLAGS = %q, want %q", got, "-L"+libDir)
		}
	}
}

func TestUsePartialDirs(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "include"), 0o755)

	for _, key := range []string{"PKG_CONFIG_PATH", "CMAKE_LIBRARY_PATH"} {
		t.Setenv(key, "")
	}

	c := New("", "", "")
	c.L = hclog.NewNullLogger()
	c.Use(root)

	if got := os.Getenv("PKG_CONFIG_PATH"); got != "" {
		t.Errorf("PKG_CONFIG_PATH = %q, want empty", got)
	}
	if got := os.Getenv("CMAKE_LIBRARY_PATH"); got != "" {
		t.Errorf("CMAKE_LIBRARY_PATH = %q, want empty", got)
	}
}

func TestOutputDir(t *testing.T) {
	if got := New("", "build", "").OutputDir(); got != "build" {
		t.Errorf("OutputDir = %q, want %q", got, "build")
	}
	if got := New("", "build", "inst").OutputDir(); got != "inst" {
		t.Errorf("OutputDir = %q, want %q", got, "inst")
	}
}

func TestDefinesArgs(t *testing.T) {
	c := New("", "", "")
	c.Define("OPENCV_VERSION", "4.5.5")
	c.DefineBool("OPENCV_SHARED", true)
	c.DefineBool("OPENCV_WITH_CUDA", false)

	args := c.definesArgs()
	want := []string{
		"-DOPENCV_SHARED:BOOL=ON",
		"-DOPENCV_VERSION:STRING=4.5.5",
		"-DOPENCV_WITH_CUDA:BOOL=OFF",
	}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("definesArgs = %v, want %v", args, want)
	}
}

func TestDefinesArgsEmpty(t *testing.T) {
	c := New("", "", "")
	if args := c.definesArgs(); args != nil {
		t.Errorf("definesArgs on empty = %v, want nil", args)
	}
}

func TestSource(t *testing.T) {
	c := New("orig", "", "")
	c.Source("/new")
	if c.sourceDir != "/new" {
		t.Errorf("sourceDir = %q, want %q", c.sourceDir, "/new")
	}
	c.InstallDir("/inst")
	if c.OutputDir() != "/inst" {
		t.Errorf("OutputDir = %q, want %q", c.OutputDir(), "/inst")
	}
}

func TestLifecycleArgs(t *testing.T) {
	tmp := t.TempDir()
	buildDir := filepath.Join(tmp, "build")

	var calls []call
	c := New("src", buildDir, "inst")
	c.L = hclog.NewNullLogger()
	c.Runner = recorder(&calls)
	c.Generator("Ninja")
	c.BuildType("Release")
	c.Toolchain("tc.cmake")
	c.Jobs(3)

	ctx := context.Background()
	if err := c.Configure(ctx, "--fresh"); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := c.Build(ctx); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := c.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := os.Stat(buildDir); err != nil {
		t.Errorf("Configure did not create build dir: %v", err)
	}

	want := []string{
		"-S src -B " + buildDir + " -G Ninja -DCMAKE_BUILD_TYPE:STRING=Release -DCMAKE_INSTALL_PREFIX:STRING=inst -DCMAKE_TOOLCHAIN_FILE:STRING=tc.cmake --fresh",
		"--build " + buildDir + " --config Release --parallel 3",
		"--install " + buildDir + " --config Release --prefix inst",
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(calls), len(want))
	}
	for i, w := range want {
		if calls[i].name != "cmake" {
			t.Errorf("call %d name = %q, want cmake", i, calls[i].name)
		}
		if got := strings.Join(calls[i].args, " "); got != w {
			t.Errorf("call %d args = %q, want %q", i, got, w)
		}
	}
}

func TestParallelJobsDefault(t *testing.T) {
	c := New("", "", "")
	if n := c.parallelJobs(); n < 1 {
		t.Errorf("parallelJobs = %d, want >= 1", n)
	}
}

func TestPrependPath(t *testing.T) {
	t.Setenv("TEST_PREPEND", "/existing")
	prependPath("TEST_PREPEND", "/new")

	want := "/new" + string(os.PathListSeparator) + "/existing"
	if got := os.Getenv("TEST_PREPEND"); got != want {
		t.Errorf("TEST_PREPEND = %q, want %q", got, want)
	}
}

func TestAppendFlag(t *testing.T) {
	t.Setenv("TEST_FLAGS", "-Ifoo")
	appendFlag("TEST_FLAGS", "-Ibar")

	if got := os.Getenv("TEST_FLAGS"); got != "-Ifoo -Ibar" {
		t.Errorf("TEST_FLAGS = %q, want %q", got, "-Ifoo -Ibar")
	}
}

func TestConfigureBuildInstallE2E(t *testing.T) {
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("cmake not found in PATH")
	}
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("C compiler not found in PATH")
	}

	tmp := t.TempDir()
	installDir := filepath.Join(tmp, "install")
	buildDir := filepath.Join(tmp, "build")

	c := New(filepath.Join("testdata", "project"), buildDir, installDir)
	c.L = hclog.NewNullLogger()
	c.BuildType("Release")
	c.Generator("Unix Makefiles")

	toolchain := filepath.Join(tmp, "toolchain.cmake")
	tc := &ToolchainFile{BuildType: "Release", Cache: []CacheEntry{BoolEntry("OPENCV_SHARED", true, "opencv/*:shared")}}
	if err := tc.Write(toolchain); err != nil {
		t.Fatalf("write toolchain: %v", err)
	}
	c.Toolchain(toolchain)

	c.Define("FOO", "BAR")
	c.DefineBool("ENABLE", true)

	ctx := context.Background()
	if err := c.Configure(ctx); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := c.Build(ctx); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := c.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}

	for _, path := range []string{
		filepath.Join(installDir, "lib", "libispdummy.a"),
		filepath.Join(installDir, "include", "dummy.h"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s", path)
		}
	}

	data, err := os.ReadFile(filepath.Join(buildDir, "CMakeCache.txt"))
	if err != nil {
		t.Fatalf("read CMakeCache.txt: %v", err)
	}
	cache := string(data)
	for _, want := range []string{
		"FOO:STRING=BAR",
		"ENABLE:BOOL=ON",
		"OPENCV_SHARED:BOOL=ON",
		"CMAKE_BUILD_TYPE:STRING=Release",
		"CMAKE_INSTALL_PREFIX",
	} {
		if !strings.Contains(cache, want) {
			t.Errorf("cache missing %q", want)
		}
	}
}
