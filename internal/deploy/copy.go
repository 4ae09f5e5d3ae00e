package deploy

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// copyEntry performs a single planned copy and reports whether anything was
// written.
func copyEntry(j job) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(j.dst), 0o755); err != nil {
		return false, err
	}
	if j.symlink {
		return copySymlink(j.src, j.dst)
	}
	same, err := identical(j.src, j.dst)
	if err != nil {
		return false, err
	}
	if same {
		return false, nil
	}
	return true, copyFile(j.src, j.dst, j.mode)
}

func copySymlink(src, dst string) (bool, error) {
	target, err := os.Readlink(src)
	if err != nil {
		return false, err
	}
	if cur, err := os.Readlink(dst); err == nil && cur == target {
		return false, nil
	}
	if err := os.RemoveAll(dst); err != nil {
		return false, err
	}
	return true, os.Symlink(target, dst)
}

// copyFile writes src to a temporary file beside dst and renames it into
// place so readers never observe a partial library.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".isp-copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	if info, err := os.Lstat(dst); err == nil && (info.IsDir() || info.Mode()&os.ModeSymlink != 0) {
		if err := os.RemoveAll(dst); err != nil {
			return err
		}
	}
	return os.Rename(tmp.Name(), dst)
}

// identical reports whether dst already holds the content of src.
func identical(src, dst string) (bool, error) {
	si, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	di, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !di.Mode().IsRegular() || si.Size() != di.Size() {
		return false, nil
	}
	sh, err := fileHash(src)
	if err != nil {
		return false, err
	}
	dh, err := fileHash(dst)
	if err != nil {
		return false, err
	}
	return sh == dh, nil
}

func fileHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
