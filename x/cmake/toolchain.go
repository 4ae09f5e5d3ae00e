package cmake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CacheEntry is a cache variable written into a generated toolchain file.
type CacheEntry struct {
	Key   string
	Type  string // "BOOL" or "STRING"
	Value string
	Doc   string
}

// BoolEntry returns a BOOL cache entry.
func BoolEntry(key string, v bool, doc string) CacheEntry {
	return CacheEntry{Key: key, Type: "BOOL", Value: onOff(v), Doc: doc}
}

// ToolchainFile describes a toolchain file generated for a recipe build.
type ToolchainFile struct {
	Header      string
	BuildType   string
	Settings    map[string]string
	PrefixPaths []string
	Cache       []CacheEntry
}

// Render returns the CMake source of the toolchain file.
func (tc *ToolchainFile) Render() string {
	var b strings.Builder
	if tc.Header != "" {
		for _, line := range strings.Split(tc.Header, "\n") {
			fmt.Fprintf(&b, "# %s\n", line)
		}
		b.WriteString("\n")
	}
	if tc.BuildType != "" {
		fmt.Fprintf(&b, "set(CMAKE_BUILD_TYPE %s CACHE STRING \"Build type\")\n", quote(tc.BuildType))
	}

	keys := make([]string, 0, len(tc.Settings))
	for k := range tc.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := "ISP_SETTING_" + Identifier(k)
		fmt.Fprintf(&b, "set(%s %s)\n", name, quote(tc.Settings[k]))
	}

	if len(tc.PrefixPaths) > 0 {
		paths := make([]string, len(tc.PrefixPaths))
		for i, p := range tc.PrefixPaths {
			paths[i] = quote(filepath.ToSlash(p))
		}
		fmt.Fprintf(&b, "list(PREPEND CMAKE_PREFIX_PATH %s)\n", strings.Join(paths, " "))
	}

	for _, e := range tc.Cache {
		fmt.Fprintf(&b, "set(%s %s CACHE %s %s)\n", e.Key, quote(e.Value), e.Type, quote(e.Doc))
	}
	return b.String()
}

// Write renders the toolchain file to path, creating parent directories.
func (tc *ToolchainFile) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(tc.Render()), 0o644)
}

// Identifier upper-cases s and replaces every character that is not valid
// in a CMake variable name with an underscore.
func Identifier(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
