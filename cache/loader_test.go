package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/graft/cache"
)

func TestLoader(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemory()
	ld := cache.NewLoader(m, time.Minute)

	var calls atomic.Int32
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("doc"), nil
	}
	for range 3 {
		v, err := ld.Load(ctx, "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, []byte("doc"), v)
	}
	assert.EqualValues(t, 1, calls.Load())

	require.NoError(t, ld.Invalidate(ctx, "k"))
	_, err := ld.Load(ctx, "k", fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestLoader_FetchError(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemory()
	ld := cache.NewLoader(m, 0)
	boom := errors.New("boom")

	_, err := ld.Load(ctx, "k", func(context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Len())
}

func TestLoader_Shared(t *testing.T) {
	ctx := context.Background()
	ld := cache.NewLoader(cache.NewMemory(), time.Minute)

	var (
		calls   atomic.Int32
		release = make(chan struct{})
		wg      sync.WaitGroup
	)
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("doc"), nil
	}
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := ld.Load(ctx, "k", fetch)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	// Callers arriving after the fetch completes hit the cache.
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, []byte("doc"), v)
	}
}

// failing is a cache that is always unavailable.
type failing struct{ cache.Cache }

func (failing) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failing) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func TestLoader_CacheDown(t *testing.T) {
	ld := cache.NewLoader(failing{}, time.Minute)
	v, err := ld.Load(context.Background(), "k", func(context.Context) ([]byte, error) {
		return []byte("doc"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("doc"), v)
}
