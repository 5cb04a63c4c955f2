package embed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_ExclusiveAcrossHandles(t *testing.T) {
	// Given: two locks on the same file
	dir := t.TempDir()
	a := NewFileLock(dir, pullLockName)
	b := NewFileLock(dir, pullLockName)
	assert.Equal(t, filepath.Join(dir, pullLockName), a.Path())

	// When: a holds the lock
	require.NoError(t, a.LockContext(context.Background()))

	// Then: b cannot take it
	ok, err := b.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)

	// And: a blocked LockContext gives up with its context
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.Error(t, b.LockContext(ctx))

	// When: a releases
	require.NoError(t, a.Unlock())

	// Then: b can take it
	ok, err = b.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Unlock())
}

func TestFileLock_UnlockWhenNotHeld(t *testing.T) {
	l := NewFileLock(t.TempDir(), "x.lock")
	assert.NoError(t, l.Unlock())
	assert.NoError(t, l.Unlock())
}
