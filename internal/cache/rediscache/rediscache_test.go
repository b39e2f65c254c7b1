package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()

	_, ok, err := c.Get(ctx, "track:CP123")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "track:CP123", []byte("view"), time.Minute))

	b, ok, err := c.Get(ctx, "track:CP123")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("view"), b)

	require.NoError(t, c.Del(ctx, "track:CP123"))
	_, ok, err = c.Get(ctx, "track:CP123")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "track:CP9", []byte("view"), time.Second))

	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "track:CP9")
	require.NoError(t, err)
	require.False(t, ok)
}
