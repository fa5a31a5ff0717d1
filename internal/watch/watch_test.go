package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRunCompletesAtHundredPercent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	if err := os.WriteFile(path, []byte(`{"downloaded":1000,"total":1000,"percentage":100}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w := New(Options{Path: path, Interval: time.Millisecond, Output: &buf})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}

	out := buf.String()
	if !strings.Contains(out, "100.00%") {
		t.Fatalf("missing percentage line: %q", out)
	}
	if !strings.Contains(out, "(1000/1000 bytes)") {
		t.Fatalf("missing byte counts: %q", out)
	}
	if !strings.Contains(out, "Download complete.") {
		t.Fatalf("missing completion line: %q", out)
	}
}

func TestRunPrintsOnlyOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	if err := os.WriteFile(path, []byte(`{"downloaded":250,"total":1000,"percentage":25}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var buf bytes.Buffer
	out := lockedWriter{mu: &mu, buf: &buf}

	w := New(Options{Path: path, Interval: time.Millisecond, Output: out})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher several polls of the same snapshot, then finish it.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"downloaded":1000,"total":1000,"percentage":100}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher did not finish")
	}
	cancel()

	mu.Lock()
	got := buf.String()
	mu.Unlock()
	if n := strings.Count(got, "25.00%"); n != 1 {
		t.Fatalf("unchanged percentage printed %d times, want 1: %q", n, got)
	}
}

func TestRunToleratesMissingAndGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	var mu sync.Mutex
	var buf bytes.Buffer
	w := New(Options{Path: path, Interval: time.Millisecond, Output: lockedWriter{mu: &mu, buf: &buf}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Nothing there yet, then a torn write, then a real snapshot.
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"downloaded":12,"to`), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"downloaded":0,"total":0,"percentage":100}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher did not recover")
	}
	cancel()

	mu.Lock()
	got := buf.String()
	mu.Unlock()
	if !strings.Contains(got, "(percent-only)") {
		t.Fatalf("zero-total snapshot should print percent-only, got %q", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := New(Options{
		Path:     filepath.Join(t.TempDir(), "never-written.json"),
		Interval: time.Millisecond,
		Output:   &bytes.Buffer{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher ignored cancellation")
	}
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
