// Package module defines the module.Version type along with support code.
package module

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// A Version (for clients, a module.Version) represents a specific version
// of a package identified by its name, as pinned by a recipe.
type Version struct {
	Path    string // Package name (e.g., "opencv")
	Version string // Version string (e.g., "4.5.5")
}

// String returns the "name/version" reference form of v.
func (v Version) String() string {
	if v.Version == "" {
		return v.Path
	}
	return v.Path + "/" + v.Version
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+.-]{0,100}$`)

// Parse parses a package reference in the form "name/version".
func Parse(ref string) (Version, error) {
	name, ver, ok := strings.Cut(ref, "/")
	if !ok {
		return Version{}, fmt.Errorf("malformed reference %q: want name/version", ref)
	}
	v := Version{Path: name, Version: ver}
	if err := Check(v); err != nil {
		return Version{}, err
	}
	return v, nil
}

// Check reports whether v carries a valid package name and a valid
// semantic version. A leading "v" on the version is optional.
func Check(v Version) error {
	if err := CheckPath(v.Path); err != nil {
		return err
	}
	if err := CheckVersion(v.Version); err != nil {
		return fmt.Errorf("%s: %w", v.Path, err)
	}
	return nil
}

// CheckPath reports whether name is a valid package name.
func CheckPath(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid package name %q", name)
	}
	return nil
}

// CheckVersion reports whether ver is a valid semantic version.
func CheckVersion(ver string) error {
	if ver == "" {
		return fmt.Errorf("missing version")
	}
	if !semver.IsValid(canonical(ver)) {
		return fmt.Errorf("invalid version %q", ver)
	}
	return nil
}

// Compare orders versions by path, then by semantic version.
func Compare(a, b Version) int {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	return semver.Compare(canonical(a.Version), canonical(b.Version))
}

func canonical(ver string) string {
	if strings.HasPrefix(ver, "v") {
		return ver
	}
	return "v" + ver
}

// EscapePath returns the escaped form of the given module path as a valid
// file system path. It fails if the module path is invalid.
func EscapePath(path string) (escaped string, err error) {
	return filepath.Localize(path)
}
