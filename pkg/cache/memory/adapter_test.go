package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter()

	_, ok, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Set(ctx, "k", "v", time.Minute))
	v, ok, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, a.Delete(ctx, "k"))
	_, ok, _ = a.Get(ctx, "k")
	assert.False(t, ok)
}

func TestAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	require.NoError(t, a.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)

	_, ok, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Len())
}

func TestAdapter_InvalidInput(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter()

	assert.ErrorIs(t, a.Set(ctx, "k", "v", 0), ErrInvalidTTL)
	assert.Error(t, a.Set(ctx, "", "v", time.Second))
}
