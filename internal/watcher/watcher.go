package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Start handles requests already waiting in the directory, then every new
// *.txt file until ctx is cancelled. In-flight requests finish before it returns.
func (w *implWatcher) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	w.logger.Info(ctx, "Request watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.dir)

	pending, err := w.pending()
	if err != nil {
		return err
	}
	for _, path := range pending {
		if err := w.dispatch(ctx, &wg, path); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing requests to complete...")
			wg.Wait()
			w.logger.Info(ctx, "Request watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isRequestFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-request file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New request detected: %s", event.Name)

			// Let the writer finish.
			select {
			case <-time.After(w.settle):
			case <-ctx.Done():
				continue
			}

			if err := w.dispatch(ctx, &wg, event.Name); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// dispatch handles path in a goroutine once a semaphore slot is free. A path
// already queued or running is not dispatched again.
func (w *implWatcher) dispatch(ctx context.Context, wg *sync.WaitGroup, path string) error {
	if !w.claim(path) {
		w.logger.Debug(ctx, "Request already queued: %s", path)
		return nil
	}

	select {
	case w.semaphore <- struct{}{}:
	case <-ctx.Done():
		w.release(path)
		return ctx.Err()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { <-w.semaphore }()
		defer w.release(path)
		w.handle(ctx, path)
	}()
	return nil
}

func (w *implWatcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[path] {
		return false
	}
	w.inFlight[path] = true
	return true
}

func (w *implWatcher) release(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, path)
}

func (w *implWatcher) handle(ctx context.Context, path string) {
	// A create event can trail the startup scan for a file already archived.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		w.logger.Debug(ctx, "Request already handled: %s", path)
		return
	}

	ids, err := ParseRequest(path)
	if err == nil {
		w.logger.Info(ctx, "Request %s: %s", filepath.Base(path), strings.Join(ids, ", "))
		err = w.handler(ctx, Request{Path: path, IDs: ids})
	}

	dest := doneDir
	if err != nil {
		w.logger.Error(ctx, "Failed to process %s: %v", path, err)
		dest = failedDir
	}
	w.archive(ctx, path, dest)
}

// archive moves a handled request into dir/<sub>, prefixed with a timestamp
// so repeated requests never collide.
func (w *implWatcher) archive(ctx context.Context, path, sub string) {
	name := time.Now().UTC().Format("20060102T150405") + "_" + filepath.Base(path)
	destPath := filepath.Join(w.dir, sub, name)

	if err := os.Rename(path, destPath); err != nil {
		w.logger.Warn(ctx, "Failed to move request %s: %v", path, err)
		return
	}
	w.logger.Debug(ctx, "Moved request: %s -> %s", path, destPath)
}

func (w *implWatcher) pending() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read requests dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && isRequestFile(e.Name()) {
			paths = append(paths, filepath.Join(w.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// isRequestFile accepts visible *.txt files.
func isRequestFile(path string) bool {
	name := filepath.Base(path)
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".txt")
}
