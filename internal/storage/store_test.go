package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k", "other"))
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)
}

func TestJSON_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := []payload{{Name: "Pizza", Price: 12.99}, {Name: "Coffee", Price: 4.49}}

	require.NoError(t, SetJSON(ctx, s, "items", in))

	var out []payload
	found, err := GetJSON(ctx, s, "items", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestGetJSON_Missing(t *testing.T) {
	var out []payload
	found, err := GetJSON(context.Background(), NewMemoryStore(), "nothing", &out)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestGetJSON_CorruptedValueIsDeleted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "items", "{not json"))

	var out []payload
	found, err := GetJSON(ctx, s, "items", &out)

	assert.False(t, found)
	var corrupted *CorruptedError
	require.ErrorAs(t, err, &corrupted)
	assert.Equal(t, "items", corrupted.Key)

	_, stillThere, _ := s.Get(ctx, "items")
	assert.False(t, stillThere)
}

func TestKeys_AreClientScoped(t *testing.T) {
	assert.Equal(t, "quickOrderCart:abc", CartKey("abc"))
	assert.Equal(t, "cartLastUpdated:abc", CartUpdatedKey("abc"))
	assert.Equal(t, "notifiedCancelledOrders:abc", NotifiedCancelledKey("abc"))
	assert.NotEqual(t, CartKey("a"), CartKey("b"))
}

func TestMemoryStore_SetTTLExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.SetTTL(ctx, "short", "1", time.Minute))
	require.NoError(t, s.SetTTL(ctx, "forever", "2", 0))

	v, found, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", v)

	now = now.Add(time.Minute)

	_, found, err = s.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, _ = s.Get(ctx, "forever")
	assert.True(t, found)
	assert.Equal(t, 1, s.Len())

	// The next write sweeps expired entries.
	require.NoError(t, s.Set(ctx, "other", "3"))
	s.mu.RLock()
	_, kept := s.values["short"]
	s.mu.RUnlock()
	assert.False(t, kept)
}
