package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The package client is global, so these tests swap it in and out and must
// not run in parallel with each other.
func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := GetClient()
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(prev) })
	return mr
}

type region struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAside_MissLoadsAndCaches(t *testing.T) {
	mr := withMiniredis(t)

	calls := 0
	loader := func(dest *[]region) func() error {
		return func() error {
			calls++
			*dest = []region{{ID: 1, Name: "Ashanti"}}
			return nil
		}
	}

	var first []region
	require.NoError(t, Aside(context.Background(), "reference:regions", &first, time.Minute, loader(&first)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Ashanti", first[0].Name)
	assert.True(t, mr.Exists("reference:regions"))

	var second []region
	require.NoError(t, Aside(context.Background(), "reference:regions", &second, time.Minute, loader(&second)))
	assert.Equal(t, 1, calls, "a cache hit must not invoke the loader")
	assert.Equal(t, first, second)
}

func TestAside_CorruptEntryIsRewritten(t *testing.T) {
	mr := withMiniredis(t)
	require.NoError(t, mr.Set("reference:regions", "not-json"))

	var out []region
	err := Aside(context.Background(), "reference:regions", &out, time.Minute, func() error {
		out = []region{{ID: 2, Name: "Volta"}}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Volta", out[0].Name)

	cached, err := mr.Get("reference:regions")
	require.NoError(t, err)
	assert.Contains(t, cached, "Volta")
}

func TestAside_NoClientDegradesToLoader(t *testing.T) {
	prev := GetClient()
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	var out []region
	err := Aside(context.Background(), "reference:regions", &out, time.Minute, func() error {
		out = []region{{ID: 3, Name: "Northern"}}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Northern", out[0].Name)
}

func TestInvalidate(t *testing.T) {
	mr := withMiniredis(t)
	require.NoError(t, mr.Set("reference:regions", "[]"))
	require.NoError(t, mr.Set("reference:commodities", "[]"))

	Invalidate(context.Background(), "reference:regions", "reference:commodities")
	assert.False(t, mr.Exists("reference:regions"))
	assert.False(t, mr.Exists("reference:commodities"))

	// No client and no keys are both harmless.
	Invalidate(context.Background())
	SetClient(nil)
	Invalidate(context.Background(), "reference:regions")
}
