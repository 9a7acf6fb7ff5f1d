package watcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "one per line", input: "2401.00001\n2401.00002v2\n", want: []string{"2401.00001", "2401.00002v2"}},
		{name: "whitespace separated", input: "2401.00001  2401.00002\t2401.00003", want: []string{"2401.00001", "2401.00002", "2401.00003"}},
		{name: "comments", input: "# today's picks\n2401.00001 # the good one\n\n#2401.00009\n", want: []string{"2401.00001"}},
		{name: "prefixes and urls", input: "arXiv:2401.00001\nhttps://arxiv.org/abs/2401.00002v1\nhttps://arxiv.org/pdf/2401.00003.pdf", want: []string{"2401.00001", "2401.00002v1", "2401.00003"}},
		{name: "duplicates across versions", input: "2401.00001v1 2401.00001v2 2401.00001", want: []string{"2401.00001v1"}},
		{name: "old style", input: "hep-th/9901001", want: []string{"hep-th/9901001"}},
		{name: "empty", input: "# nothing yet\n", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRequestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseRequest(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0644))
	_, err = ParseRequest(empty)
	assert.Error(t, err)
}

func TestIsRequestFile(t *testing.T) {
	assert.True(t, isRequestFile("/r/today.txt"))
	assert.True(t, isRequestFile("/r/TODAY.TXT"))
	assert.False(t, isRequestFile("/r/.today.txt"))
	assert.False(t, isRequestFile("/r/today.txt.tmp"))
	assert.False(t, isRequestFile("/r/paper.pdf"))
}

// dropRequest writes through a temp name and renames so the watcher sees a
// complete file.
func dropRequest(t *testing.T, dir, name, body string) {
	t.Helper()
	tmp := filepath.Join(dir, "."+name+".tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(body), 0644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, name)))
}

func startWatcher(t *testing.T, dir string, handler Handler) (context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(dir, handler, logger.Nop(), 1)
	require.NoError(t, err)
	w.(*implWatcher).settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		done <- w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
		_ = w.Stop()
	})
	return cancel, done
}

func archived(t *testing.T, dir, sub string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, sub))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWatcherHandlesRequests(t *testing.T) {
	dir := t.TempDir()
	got := make(chan Request, 4)

	startWatcher(t, dir, func(ctx context.Context, req Request) error {
		got <- req
		if strings.Contains(req.Path, "bad") {
			return errors.New("pipeline failed")
		}
		return nil
	})

	dropRequest(t, dir, "notes.md", "2401.00009")
	dropRequest(t, dir, "good.txt", "2401.00001\n2401.00002")

	select {
	case req := <-got:
		assert.Equal(t, []string{"2401.00001", "2401.00002"}, req.IDs)
		assert.Equal(t, filepath.Join(dir, "good.txt"), req.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("request not handled")
	}

	dropRequest(t, dir, "bad.txt", "2401.00003")
	select {
	case req := <-got:
		assert.Equal(t, []string{"2401.00003"}, req.IDs)
	case <-time.After(5 * time.Second):
		t.Fatal("request not handled")
	}

	assert.Eventually(t, func() bool {
		done := archived(t, dir, doneDir)
		failed := archived(t, dir, failedDir)
		return len(done) == 1 && strings.HasSuffix(done[0], "_good.txt") &&
			len(failed) == 1 && strings.HasSuffix(failed[0], "_bad.txt")
	}, 5*time.Second, 20*time.Millisecond)

	_, err := os.Stat(filepath.Join(dir, "notes.md"))
	assert.NoError(t, err)
}

func TestWatcherPicksUpPendingRequests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waiting.txt"), []byte("2401.00001"), 0644))

	got := make(chan Request, 1)
	startWatcher(t, dir, func(ctx context.Context, req Request) error {
		got <- req
		return nil
	})

	select {
	case req := <-got:
		assert.Equal(t, []string{"2401.00001"}, req.IDs)
	case <-time.After(5 * time.Second):
		t.Fatal("pending request not handled")
	}
}

func TestWatcherUnparseableRequestFails(t *testing.T) {
	dir := t.TempDir()
	called := make(chan struct{}, 1)

	startWatcher(t, dir, func(ctx context.Context, req Request) error {
		called <- struct{}{}
		return nil
	})

	dropRequest(t, dir, "empty.txt", "# nothing\n")

	assert.Eventually(t, func() bool {
		return len(archived(t, dir, failedDir)) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Empty(t, called)
}

func newTestWatcher(t *testing.T, dir string, handler Handler) *implWatcher {
	t.Helper()
	w, err := New(dir, handler, logger.Nop(), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w.(*implWatcher)
}

func TestDispatchSkipsQueuedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.txt")
	require.NoError(t, os.WriteFile(path, []byte("2401.00001"), 0644))

	var calls atomic.Int32
	unblock := make(chan struct{})
	w := newTestWatcher(t, dir, func(ctx context.Context, req Request) error {
		calls.Add(1)
		<-unblock
		return nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	require.NoError(t, w.dispatch(ctx, &wg, path))
	require.NoError(t, w.dispatch(ctx, &wg, path))
	close(unblock)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, archived(t, dir, doneDir), 1)
	assert.Empty(t, archived(t, dir, failedDir))
}

func TestHandleIgnoresArchivedRequest(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	called := false

	w := newTestWatcher(t, dir, func(ctx context.Context, req Request) error {
		called = true
		return nil
	})
	w.logger = logger.NewWithFormat("debug", "text", &buf)

	w.handle(context.Background(), filepath.Join(dir, "gone.txt"))

	assert.False(t, called)
	assert.Empty(t, archived(t, dir, failedDir))
	assert.NotContains(t, buf.String(), "level=ERROR")
	assert.NotContains(t, buf.String(), "level=WARN")
}

func TestWatcherStopsOnCancel(t *testing.T) {
	cancel, done := startWatcher(t, t.TempDir(), func(ctx context.Context, req Request) error { return nil })
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
