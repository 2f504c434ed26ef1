package filewatch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opst/mlconsole/pkg/utils/filewatch"
)

func TestOnChange(t *testing.T) {
	t.Run("when the watched file is written, it calls reload", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "seed.yaml")
		if err := os.WriteFile(file, []byte("a: 1"), 0644); err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reloaded := make(chan struct{}, 8)
		started := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			close(started)
			done <- filewatch.OnChange(ctx, file, func() error {
				reloaded <- struct{}{}
				return nil
			}, nil)
		}()
		<-started

		// writing until noticed; the watcher may not be registered yet on the first write.
		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		timeout := time.After(5 * time.Second)
	WAIT:
		for {
			select {
			case <-reloaded:
				break WAIT
			case <-tick.C:
				if err := os.WriteFile(file, []byte("a: 2"), 0644); err != nil {
					t.Fatal(err)
				}
			case <-timeout:
				t.Fatal("reload is not called")
			}
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("OnChange does not return after cancel")
		}
	})

	t.Run("when another file in the same directory is written, it does not call reload", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "seed.yaml")
		other := filepath.Join(dir, "other.yaml")
		if err := os.WriteFile(file, []byte("a: 1"), 0644); err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		called := 0
		go func() {
			time.Sleep(100 * time.Millisecond)
			os.WriteFile(other, []byte("b: 1"), 0644)
		}()
		err := filewatch.OnChange(ctx, file, func() error {
			called += 1
			return nil
		}, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("unexpected error: %v", err)
		}
		if called != 0 {
			t.Errorf("reload is called %d times", called)
		}
	})

	t.Run("errors from reload are passed to onError", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "seed.yaml")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		expectedErr := errors.New("broken yaml")
		got := make(chan error, 8)
		go filewatch.OnChange(ctx, file, func() error {
			return expectedErr
		}, func(err error) { got <- err })

		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case err := <-got:
				if !errors.Is(err, expectedErr) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			case <-tick.C:
				os.WriteFile(file, []byte("::"), 0644)
			case <-timeout:
				t.Fatal("onError is not called")
			}
		}
	})
}
