package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFetchBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "panel-schedule.txt", "MDP-1 480V")

	src := New(dir)
	data, mimeType, err := src.FetchBytes(context.Background(), "panel-schedule.txt")
	require.NoError(t, err)
	assert.Equal(t, "MDP-1 480V", string(data))
	assert.Equal(t, "text/plain", mimeType)
}

func TestFetchBytesMissingFile(t *testing.T) {
	src := New(t.TempDir())
	_, _, err := src.FetchBytes(context.Background(), "missing.pdf")
	assert.Error(t, err)
}

func TestFetchBytesRejectsEscape(t *testing.T) {
	src := New(t.TempDir())
	_, _, err := src.FetchBytes(context.Background(), "../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes source root")
}

func TestListNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "diagram.txt", "one-line diagram")
	writeFile(t, dir, ".hidden.txt", "skip me")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	writeFile(t, filepath.Join(dir, ".git"), "config", "skip me too")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "schedules"), 0755))
	writeFile(t, filepath.Join(dir, "schedules"), "lp-2.txt", "lighting panel")

	src := New(dir)
	files, err := src.ListNewFiles(context.Background(), ".", time.Time{})
	require.NoError(t, err)

	refs := make([]string, len(files))
	for i, f := range files {
		refs[i] = f.Ref
	}
	assert.ElementsMatch(t, []string{"diagram.txt", filepath.Join("schedules", "lp-2.txt")}, refs)
}

func TestListNewFilesSince(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.txt", "old")
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.txt"), old, old))
	writeFile(t, dir, "new.txt", "new")

	src := New(dir)
	files, err := src.ListNewFiles(context.Background(), ".", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "new.txt", files[0].Ref)
}

func TestWatchEmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	src := New(dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := src.Watch(ctx, ".")
	require.NoError(t, err)

	writeFile(t, dir, "fresh.txt", "new schedule")

	select {
	case file := <-events:
		assert.Equal(t, "fresh.txt", file.Ref)
		assert.Equal(t, "text/plain", file.MIMEType)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	cancel()
	// Channel closes after cancellation.
	for range events { //nolint:revive // drain until closed
	}
}
