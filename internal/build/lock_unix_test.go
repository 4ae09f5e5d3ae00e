//go:build unix

package build

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	unlock, err := lockFile(context.Background(), path)
	if err != nil {
		t.Fatalf("lockFile failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*lockPoll)
	defer cancel()
	if _, err := lockFile(ctx, path); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second lock err = %v, want deadline exceeded", err)
	}

	unlock()
	unlock2, err := lockFile(context.Background(), path)
	if err != nil {
		t.Fatalf("lock after unlock failed: %v", err)
	}
	unlock2()
}
