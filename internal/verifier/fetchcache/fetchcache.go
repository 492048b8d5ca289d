// Package fetchcache constrains concurrent replicas of the same logical
// metrics fetch to agree on one response. The first replica to publish a
// payload for a (platform, video, window) key wins; everyone else adopts
// the published bytes instead of their own observation.
package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/clock"
)

// ErrConsensusFetchTimeout is returned when no agreed payload appeared
// within the bounded wait. Terminal for the run; never retried here.
var ErrConsensusFetchTimeout = errors.New("fetchcache: no agreed response within window")

const pollInterval = 100 * time.Millisecond

// Store is the shared first-writer-wins cache the replicas coordinate
// through. Implementations must make SetNX atomic across replicas.
type Store interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// FetchFunc performs the underlying metrics fetch once.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Fetcher wraps fetches in the agreement protocol.
type Fetcher struct {
	store       Store
	window      time.Duration
	waitTimeout time.Duration
	clock       clock.Clock
	log         *zap.Logger
}

func New(store Store, window, waitTimeout time.Duration, clk clock.Clock, log *zap.Logger) *Fetcher {
	return &Fetcher{
		store:       store,
		window:      window,
		waitTimeout: waitTimeout,
		clock:       clk,
		log:         log.Named("verifier.fetchcache"),
	}
}

// key buckets all replicas triggered by the same event into the same
// window, so their fetches collapse onto one cache slot.
func (f *Fetcher) key(platform, videoID string) string {
	windowStart := f.clock.Now().Truncate(f.window)
	return fmt.Sprintf("metrics:%s:%s:%d", platform, videoID, windowStart.Unix())
}

// Fetch returns the agreed payload for (platform, videoID) in the current
// window. If no payload is published yet it performs fn and tries to
// publish the result; losing the publish race means adopting the winner's
// bytes. A replica whose own fetch failed waits for another replica's
// payload until the wait timeout.
func (f *Fetcher) Fetch(ctx context.Context, platform, videoID string, fn FetchFunc) ([]byte, error) {
	key := f.key(platform, videoID)

	if payload, ok, err := f.store.Get(ctx, key); err != nil {
		return nil, fmt.Errorf("fetchcache: read %s: %w", key, err)
	} else if ok {
		return payload, nil
	}

	payload, fetchErr := fn(ctx)
	if fetchErr == nil {
		won, err := f.store.SetNX(ctx, key, payload, 2*f.window)
		if err != nil {
			return nil, fmt.Errorf("fetchcache: publish %s: %w", key, err)
		}
		if won {
			return payload, nil
		}
		f.log.Debug("lost publish race, adopting agreed payload", zap.String("key", key))
	} else {
		f.log.Warn("local fetch failed, waiting for agreed payload",
			zap.String("key", key),
			zap.Error(fetchErr),
		)
	}

	agreed, err := f.waitForPayload(ctx, key)
	if err != nil && fetchErr != nil {
		return nil, fmt.Errorf("%w (local fetch: %v)", err, fetchErr)
	}
	return agreed, err
}

func (f *Fetcher) waitForPayload(ctx context.Context, key string) ([]byte, error) {
	deadline := time.NewTimer(f.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		payload, ok, err := f.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("fetchcache: read %s: %w", key, err)
		}
		if ok {
			return payload, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrConsensusFetchTimeout
		case <-ticker.C:
		}
	}
}
