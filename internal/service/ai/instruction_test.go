package ai

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionSourceWithoutFile(t *testing.T) {
	src, err := NewInstructionSource("")
	require.NoError(t, err)
	assert.Equal(t, DefaultInstruction, src.Current())
	assert.NoError(t, src.Reload())
}

func TestInstructionSourceLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instruction.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Kamu tutor matematika.\n"), 0o644))

	src, err := NewInstructionSource(path)
	require.NoError(t, err)
	assert.Equal(t, "Kamu tutor matematika.", src.Current())
}

func TestInstructionSourceRejectsMissingOrBlankFile(t *testing.T) {
	dir := t.TempDir()

	_, err := NewInstructionSource(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte("   \n"), 0o644))
	_, err = NewInstructionSource(blank)
	assert.Error(t, err)
}

func TestInstructionSourceReloadKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instruction.txt")
	require.NoError(t, os.WriteFile(path, []byte("versi satu"), 0o644))

	src, err := NewInstructionSource(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	assert.Error(t, src.Reload())
	assert.Equal(t, "versi satu", src.Current())

	require.NoError(t, os.WriteFile(path, []byte("versi dua"), 0o644))
	require.NoError(t, src.Reload())
	assert.Equal(t, "versi dua", src.Current())
}

func TestInstructionSourceWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instruction.txt")
	require.NoError(t, os.WriteFile(path, []byte("versi satu"), 0o644))

	src, err := NewInstructionSource(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("versi dua"), 0o644)
		return src.Current() == "versi dua"
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestStaticInstructionWatchWaitsForContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StaticInstruction("x").Watch(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
