package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

func TestStore_Lock_IsExclusive(t *testing.T) {
	// Given: one pass holding the lock
	s := newTestStore(t)
	held, err := s.Lock()
	require.NoError(t, err)

	// When: a second pass tries to lock the same manifest
	_, err = NewStore(s.Path()).Lock()

	// Then: it is rejected as pass-in-progress
	require.Error(t, err)
	assert.True(t, errors.Is(err, docerrors.ErrPassInProgress))

	// And: after release the lock can be taken again
	require.NoError(t, held.Unlock())
	again, err := s.Lock()
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}

func TestPassLock_UnlockTwiceIsSafe(t *testing.T) {
	s := newTestStore(t)
	l, err := s.Lock()
	require.NoError(t, err)

	assert.Equal(t, s.LockPath(), l.Path())
	assert.NoError(t, l.Unlock())
	assert.NoError(t, l.Unlock())

	var nilLock *PassLock
	assert.NoError(t, nilLock.Unlock())
}
