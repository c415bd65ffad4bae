package tokenstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatch_FiresOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	store := NewFile(filepath.Join(dir, "tokens.json"))

	// The watched directory must exist before the watcher starts.
	require.NoError(t, store.Set(KeyAccessToken, "initial"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- Watch(ctx, store, slog.Default(), func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// Another process rewrites the file (atomic rename included).
	other := NewFile(store.Path())
	require.NoError(t, other.Set(KeyAccessToken, "refreshed-elsewhere"))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the external write")
	}

	cancel()

	select {
	case err := <-watchDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFile(filepath.Join(dir, "tokens.json"))
	require.NoError(t, store.Set(KeyAccessToken, "initial"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)

	go func() {
		_ = Watch(ctx, store, slog.Default(), func() {
			changed <- struct{}{}
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// A sibling file changing is not a credential change.
	sibling := NewFile(filepath.Join(dir, "other.json"))
	require.NoError(t, sibling.Set(KeyAccessToken, "noise"))

	select {
	case <-changed:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
