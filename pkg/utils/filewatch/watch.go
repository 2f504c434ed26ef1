package filewatch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// OnChange calls reload each time the file at path is modified
// (= written, created, removed, or renamed), until ctx is done.
//
// The directory containing the file is watched, not the file itself,
// so that editors replacing the file by rename are followed.
//
// # Args
//
// - ctx: context.Context. When it is done, watching stops and OnChange returns ctx.Err().
//
// - path: file path to be watched.
//
// - reload: called after each modification. Errors from it are passed to onError.
//
// - onError: called with errors of reload or the watcher. It can be nil.
//
// # Returns
//
// - error: error caused when it fails to start watching, or ctx.Err() .
func OnChange(ctx context.Context, path string, reload func() error, onError func(error)) error {
	if onError == nil {
		onError = func(error) {}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.Errors:
			if !ok {
				return ctx.Err()
			}
			onError(err)
		case ev, ok := <-w.Events:
			if !ok {
				return ctx.Err()
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if err := reload(); err != nil {
				onError(err)
			}
		}
	}
}
