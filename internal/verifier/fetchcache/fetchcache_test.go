package fetchcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/clock"
)

func newTestFetcher(store Store) *Fetcher {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC))
	return New(store, time.Minute, 500*time.Millisecond, clk, zap.NewNop())
}

func TestFetchPublishesFirstResponse(t *testing.T) {
	f := newTestFetcher(NewMemoryStore())

	got, err := f.Fetch(context.Background(), "youtube", "vid1", func(context.Context) ([]byte, error) {
		return []byte(`{"viewCount":100}`), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"viewCount":100}`), got)
}

func TestFetchReplicasAgree(t *testing.T) {
	store := NewMemoryStore()
	f := newTestFetcher(store)

	first, err := f.Fetch(context.Background(), "youtube", "vid1", func(context.Context) ([]byte, error) {
		return []byte(`{"viewCount":100}`), nil
	})
	require.NoError(t, err)

	// A later replica observes a different upstream value but must adopt
	// the published payload.
	second, err := f.Fetch(context.Background(), "youtube", "vid1", func(context.Context) ([]byte, error) {
		return []byte(`{"viewCount":999}`), nil
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFetchConcurrentReplicasConverge(t *testing.T) {
	store := NewMemoryStore()
	f := newTestFetcher(store)

	const replicas = 8
	results := make([][]byte, replicas)
	var wg sync.WaitGroup
	for i := 0; i < replicas; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := []byte{byte('a' + i)}
			got, err := f.Fetch(context.Background(), "tiktok", "vid2", func(context.Context) ([]byte, error) {
				return payload, nil
			})
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for i := 1; i < replicas; i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestFetchKeySeparatesVideosAndWindows(t *testing.T) {
	store := NewMemoryStore()
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC))
	f := New(store, time.Minute, 500*time.Millisecond, clk, zap.NewNop())

	a, err := f.Fetch(context.Background(), "youtube", "vidA", func(context.Context) ([]byte, error) {
		return []byte("a"), nil
	})
	require.NoError(t, err)
	b, err := f.Fetch(context.Background(), "youtube", "vidB", func(context.Context) ([]byte, error) {
		return []byte("b"), nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// Next window starts fresh.
	clk.Advance(time.Minute)
	c, err := f.Fetch(context.Background(), "youtube", "vidA", func(context.Context) ([]byte, error) {
		return []byte("c"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), c)
}

func TestFetchFailedLocalFetchAdoptsPublished(t *testing.T) {
	store := NewMemoryStore()
	f := newTestFetcher(store)

	_, err := f.Fetch(context.Background(), "youtube", "vid3", func(context.Context) ([]byte, error) {
		return []byte("agreed"), nil
	})
	require.NoError(t, err)

	got, err := f.Fetch(context.Background(), "youtube", "vid3", func(context.Context) ([]byte, error) {
		return nil, errors.New("upstream down")
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("agreed"), got)
}

func TestFetchTimesOutWithoutAgreement(t *testing.T) {
	f := newTestFetcher(NewMemoryStore())

	_, err := f.Fetch(context.Background(), "youtube", "vid4", func(context.Context) ([]byte, error) {
		return nil, errors.New("upstream down")
	})
	assert.ErrorIs(t, err, ErrConsensusFetchTimeout)
}
