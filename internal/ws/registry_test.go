package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBareSession(r *Registry) *Session {
	return NewSession(nil, r, SessionOptions{})
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry(4)
	s1 := newBareSession(r)
	s2 := newBareSession(r)

	require.NoError(t, r.Add(s1))
	require.NoError(t, r.Add(s2))
	assert.Equal(t, 2, r.Count())

	// Re-adding a present session is a no-op, not a duplicate.
	require.NoError(t, r.Add(s1))
	assert.Equal(t, 2, r.Count())

	r.Remove(s1)
	assert.Equal(t, 1, r.Count())
	r.Remove(s1)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryLimit(t *testing.T) {
	r := NewRegistry(2)
	require.NoError(t, r.Add(newBareSession(r)))
	require.NoError(t, r.Add(newBareSession(r)))

	require.ErrorIs(t, r.Add(newBareSession(r)), ErrRegistryFull)
	assert.Equal(t, 2, r.Count())
}

func TestRegistryUnlimitedWhenZero(t *testing.T) {
	r := NewRegistry(0)
	for i := 0; i < 300; i++ {
		require.NoError(t, r.Add(newBareSession(r)))
	}
	assert.Equal(t, 300, r.Count())
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry(4)
	s1 := newBareSession(r)
	require.NoError(t, r.Add(s1))

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	snap[0] = nil

	fresh := r.Snapshot()
	require.Len(t, fresh, 1)
	assert.Same(t, s1, fresh[0])
}
