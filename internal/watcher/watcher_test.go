package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) add(path string) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func (c *collector) waitFor(t *testing.T, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		got := c.snapshot()
		if len(got) >= n {
			return got
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d callbacks, got %v", n, c.snapshot())
	return nil
}

func TestWatcherPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	var c collector
	w := NewWatcher(dir, []string{".txt"}, c.add, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got := c.waitFor(t, 1, 3*time.Second)
	if filepath.Clean(got[0]) != filepath.Clean(path) {
		t.Errorf("callback path = %q, want %q", got[0], path)
	}
}

func TestWatcherFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	var c collector
	w := NewWatcher(dir, []string{".txt", ".md"}, c.add, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0x01}, 0644); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(dir, "keep.md")
	if err := os.WriteFile(keep, []byte("# note"), 0644); err != nil {
		t.Fatal(err)
	}

	got := c.waitFor(t, 1, 3*time.Second)
	for _, p := range got {
		if filepath.Ext(p) == ".bin" {
			t.Errorf("unfiltered path delivered: %q", p)
		}
	}
}

func TestWatcherSyncsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	pre := filepath.Join(dir, "pre.txt")
	if err := os.WriteFile(pre, []byte("already here"), 0644); err != nil {
		t.Fatal(err)
	}

	var c collector
	w := NewWatcher(dir, []string{".txt"}, c.add, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	got := c.waitFor(t, 1, 3*time.Second)
	if filepath.Clean(got[0]) != filepath.Clean(pre) {
		t.Errorf("callback path = %q, want %q", got[0], pre)
	}
}

func TestWatcherCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	w := NewWatcher(dir, nil, func(string) {})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Errorf("%q is not a directory", dir)
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, nil, func(string) {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
