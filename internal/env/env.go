// Package env locates the directories isp works in.
package env

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// HomeEnv overrides the work directory when set.
const HomeEnv = "ISP_HOME"

// WorkDir returns the root directory isp keeps its state in, creating it
// with 0700 permissions if needed. It is $ISP_HOME when set, otherwise
// <UserCacheDir>/.isp.
func WorkDir() (string, error) {
	dir := os.Getenv(HomeEnv)
	if dir != "" {
		expanded, err := Expand(dir)
		if err != nil {
			return "", err
		}
		dir = expanded
	} else {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(userCacheDir, ".isp")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DepsDir returns the directory holding dependency installs, laid out as
// <DepsDir>/<name>/<version>.
func DepsDir() (string, error) {
	return subdir("deps")
}

// WorkspaceDir returns the directory holding build outputs and the build cache.
func WorkspaceDir() (string, error) {
	return subdir("workspace")
}

func subdir(name string) (string, error) {
	root, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// Expand expands a leading "~" in path to the user's home directory.
func Expand(path string) (string, error) {
	return homedir.Expand(path)
}
