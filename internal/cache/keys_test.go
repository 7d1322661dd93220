package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDerivation(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		want string
	}{
		{name: "post key", key: PostKey("abc-123"), want: "post:abc-123"},
		{name: "post list key", key: PostListKey(2, 10), want: "posts:2:10"},
		{name: "search key", key: SearchKey("golang", 1, 20), want: "search:golang:1:20"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.key)
		})
	}
}

func TestKeyPrefixesDoNotCollide(t *testing.T) {
	// A purge of the listing prefix must never hit single-item keys.
	assert.False(t, strings.HasPrefix(PostKey("1"), PostListPrefix))
	assert.True(t, strings.HasPrefix(PostListKey(1, 10), PostListPrefix))
	assert.True(t, strings.HasPrefix(SearchKey("q", 1, 10), SearchPrefix))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, PostKey("1"), []byte("one"), 0))
	require.NoError(t, m.Set(ctx, PostListKey(1, 10), []byte("page1"), 0))
	require.NoError(t, m.Set(ctx, PostListKey(2, 10), []byte("page2"), 0))

	value, err := m.Get(ctx, PostKey("1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), value)

	missing, err := m.Get(ctx, PostKey("nope"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, m.DeleteByPrefix(ctx, PostListPrefix))

	page, err := m.Get(ctx, PostListKey(1, 10))
	require.NoError(t, err)
	assert.Nil(t, page)

	// The single-item entry survives a listing purge.
	value, err = m.Get(ctx, PostKey("1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), value)
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	value, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, value)
}
