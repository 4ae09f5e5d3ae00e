package parallel

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRowsCoversEveryRowOnce(t *testing.T) {
	for _, height := range []int{1, 15, 16, 17, 480, 1081} {
		seen := make([]int, height)
		var mu sync.Mutex
		err := Rows(context.Background(), height, func(y0, y1 int) error {
			mu.Lock()
			defer mu.Unlock()
			for y := y0; y < y1; y++ {
				seen[y]++
			}
			return nil
		})
		if err != nil {
			t.Fatalf("height %d: %v", height, err)
		}
		for y, n := range seen {
			if n != 1 {
				t.Fatalf("height %d: row %d visited %d times", height, y, n)
			}
		}
	}
}

func TestRowsEmpty(t *testing.T) {
	called := false
	if err := Rows(context.Background(), 0, func(y0, y1 int) error {
		called = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("fn called for zero height")
	}
}

func TestRowsError(t *testing.T) {
	boom := errors.New("boom")
	err := Rows(context.Background(), 100, func(y0, y1 int) error {
		if y0 == 0 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRowsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Rows(ctx, 100, func(y0, y1 int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
