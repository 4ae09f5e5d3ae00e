package cmake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestToolchainRender(t *testing.T) {
	tc := &ToolchainFile{
		Header:    "Generated by isp for ISPProject/1.0.\nDo not edit.",
		BuildType: "Release",
		Settings: map[string]string{
			"os":         "Linux",
			"build_type": "Release",
		},
		PrefixPaths: []string{"/deps/opencv/4.5.5", "/deps/cli11/2.2.0"},
		Cache: []CacheEntry{
			BoolEntry("OPENCV_SHARED", true, "opencv/*:shared"),
			{Key: "OPENCV_CPU_BASELINE", Type: "STRING", Value: "AVX2", Doc: `say "hi"`},
		},
	}

	want := `# Generated by isp for ISPProject/1.0.
# Do not edit.

set(CMAKE_BUILD_TYPE "Release" CACHE STRING "Build type")
set(ISP_SETTING_BUILD_TYPE "Release")
set(ISP_SETTING_OS "Linux")
list(PREPEND CMAKE_PREFIX_PATH "/deps/opencv/4.5.5" "/deps/cli11/2.2.0")
set(OPENCV_SHARED "ON" CACHE BOOL "opencv/*:shared")
set(OPENCV_CPU_BASELINE "AVX2" CACHE STRING "say \"hi\"")
`
	if got := tc.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestToolchainWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build", "Release", "generators", "isp_toolchain.cmake")
	tc := &ToolchainFile{BuildType: "Debug"}
	if err := tc.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `set(CMAKE_BUILD_TYPE "Debug"`) {
		t.Errorf("toolchain = %q", data)
	}
}

func TestIdentifier(t *testing.T) {
	for in, want := range map[string]string{
		"opencv":          "OPENCV",
		"with_contrib":    "WITH_CONTRIB",
		"compiler.cppstd": "COMPILER_CPPSTD",
		"lib-png+":        "LIB_PNG_",
	} {
		if got := Identifier(in); got != want {
			t.Errorf("Identifier(%q) = %q, want %q", in, got, want)
		}
	}
}
