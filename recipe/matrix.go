package recipe

import (
	"runtime"
	"sort"
)

// Matrix describes the settings a recipe is built for: each setting (os,
// arch, compiler, build_type) maps to the values it takes. Options are not
// an axis; they reach the build cache through the recipe fingerprint.
type Matrix struct {
	Require map[string][]string
}

// NoSettings is the combination key of a matrix without settings.
const NoSettings = "default"

// Combinations returns all cartesian product combinations of the matrix.
// Keys are sorted alphabetically, and combinations are built layer by layer,
// joining values with "-". An empty matrix has no combinations.
func (m *Matrix) Combinations() []string {
	if len(m.Require) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m.Require))
	for k := range m.Require {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, len(m.Require[keys[0]]))
	copy(result, m.Require[keys[0]])

	for i := 1; i < len(keys); i++ {
		values := m.Require[keys[i]]
		newResult := make([]string, 0, len(result)*len(values))
		for _, prev := range result {
			for _, v := range values {
				newResult = append(newResult, prev+"-"+v)
			}
		}
		result = newResult
	}
	return result
}

// CombinationCount returns the total number of cartesian product combinations.
func (m *Matrix) CombinationCount() int {
	if len(m.Require) == 0 {
		return 0
	}
	count := 1
	for _, v := range m.Require {
		count *= len(v)
	}
	return count
}

// Key returns the first combination of m, or NoSettings when m has none.
// It names the build of a single-combination matrix such as HostSettings.
func (m *Matrix) Key() string {
	if combos := m.Combinations(); len(combos) > 0 {
		return combos[0]
	}
	return NoSettings
}

// HostSettings returns the single-combination matrix describing the host
// machine, restricted to the settings the recipe declares. Names follow the
// package-manager convention (Linux, x86_64, gcc, ...).
func (r *Recipe) HostSettings(buildType string) Matrix {
	if buildType == "" {
		buildType = DefaultBuildType
	}
	host := map[string]string{
		"os":         hostOS(runtime.GOOS),
		"arch":       hostArch(runtime.GOARCH),
		"compiler":   hostCompiler(runtime.GOOS),
		"build_type": buildType,
	}
	m := Matrix{Require: map[string][]string{}}
	for _, s := range r.Settings {
		if v, ok := host[s]; ok {
			m.Require[s] = []string{v}
		}
	}
	return m
}

func hostOS(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Macos"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	}
	return goos
}

func hostArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "armv8"
	case "arm":
		return "armv7"
	}
	return goarch
}

func hostCompiler(goos string) string {
	switch goos {
	case "darwin":
		return "apple-clang"
	case "windows":
		return "msvc"
	case "freebsd":
		return "clang"
	}
	return "gcc"
}
