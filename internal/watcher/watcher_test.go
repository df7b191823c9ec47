package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocFilter(t *testing.T) {
	assert.True(t, DocFilter("intro.md"))
	assert.True(t, DocFilter("manifest.yml"))
	assert.True(t, DocFilter("config.YAML"))
	assert.False(t, DocFilter("notes.txt"))
	assert.False(t, DocFilter("binary"))
	assert.False(t, DocFilter("report.json"))
}

func TestRunDebouncesBurst(t *testing.T) {
	root := t.TempDir()

	w, err := New(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AddTree(root))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bursts := make(chan []string, 4)
	go func() {
		_ = w.Run(ctx, func(_ context.Context, paths []string) {
			bursts <- paths
		})
	}()

	// An editor-style burst: several writes in quick succession.
	target := filepath.Join(root, "intro.md")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("body"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case paths := <-bursts:
		assert.Contains(t, paths, target)
	case <-ctx.Done():
		t.Fatal("no change burst delivered")
	}

	// The burst collapsed into a single handler call.
	select {
	case <-bursts:
		t.Fatal("burst delivered twice")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRunIgnoresUninterestingFiles(t *testing.T) {
	root := t.TempDir()

	w, err := New(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AddTree(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bursts := make(chan []string, 1)
	go func() {
		_ = w.Run(ctx, func(_ context.Context, paths []string) {
			bursts <- paths
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "scratch.txt"), []byte("x"), 0o644))

	select {
	case <-bursts:
		t.Fatal("uninteresting file triggered a run")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	root := t.TempDir()

	w, err := New(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AddTree(root))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context, []string) {})
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
