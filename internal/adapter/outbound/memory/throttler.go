package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/actiongate/actiongate/internal/domain/entitlement"
)

// Throttler implements entitlement.Throttler using GCRA in memory.
// Thread-safe for concurrent access. Includes background cleanup to
// prevent unbounded memory growth.
type Throttler struct {
	cells           map[string]time.Time // Theoretical Arrival Time per key
	mu              sync.Mutex
	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
	cleanupInterval time.Duration
	maxTTL          time.Duration
}

// NewThrottler creates a new in-memory throttler with default cleanup
// settings. Default cleanup interval: 5 minutes, default maxTTL: 1 hour.
func NewThrottler() *Throttler {
	return NewThrottlerWithConfig(5*time.Minute, 1*time.Hour)
}

// NewThrottlerWithConfig creates a new in-memory throttler with custom
// cleanup settings.
// cleanupInterval: how often to run cleanup (e.g., 5 minutes)
// maxTTL: maximum age of a key before removal (e.g., 1 hour)
func NewThrottlerWithConfig(cleanupInterval, maxTTL time.Duration) *Throttler {
	return &Throttler{
		cells:           make(map[string]time.Time),
		stopChan:        make(chan struct{}),
		cleanupInterval: cleanupInterval,
		maxTTL:          maxTTL,
	}
}

// Allow checks whether a request is allowed under the given limit.
// Uses GCRA (Generic Cell Rate Algorithm) for smooth rate limiting.
func (t *Throttler) Allow(ctx context.Context, key string, limit entitlement.Limit) (entitlement.Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()

	// Emission interval: time between allowed requests
	if limit.Rate <= 0 {
		limit.Rate = 1
	}
	emission := limit.Period / time.Duration(limit.Rate)

	// Burst offset allows burst number of requests at once
	if limit.Burst <= 0 {
		limit.Burst = limit.Rate
	}
	burstOffset := time.Duration(limit.Burst) * emission

	// Get or initialize TAT (Theoretical Arrival Time)
	tat, exists := t.cells[key]
	if !exists || tat.Before(now) {
		tat = now
	}

	allowAt := tat.Add(-burstOffset)

	if now.Before(allowAt) {
		return entitlement.Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: allowAt.Sub(now),
			ResetAfter: tat.Sub(now),
		}, nil
	}

	// Allow request, advance TAT
	newTAT := tat.Add(emission)
	if newTAT.Before(now) {
		newTAT = now.Add(emission)
	}
	t.cells[key] = newTAT

	remaining := int((burstOffset - newTAT.Sub(now)) / emission)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > limit.Burst {
		remaining = limit.Burst
	}

	return entitlement.Decision{
		Allowed:    true,
		Remaining:  remaining,
		RetryAfter: 0,
		ResetAfter: newTAT.Sub(now),
	}, nil
}

// StartCleanup starts the background cleanup goroutine.
// The goroutine periodically removes keys older than maxTTL.
// It stops when ctx is cancelled or Stop() is called.
func (t *Throttler) StartCleanup(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopChan:
				return
			case <-ticker.C:
				t.cleanup()
			}
		}
	}()
}

// cleanup removes keys older than maxTTL. Only called by the background
// cleanup goroutine.
func (t *Throttler) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-t.maxTTL)
	cleaned := 0

	for key, tat := range t.cells {
		if tat.Before(cutoff) {
			delete(t.cells, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		slog.Debug("throttler cleanup completed",
			"cleaned_keys", cleaned,
			"remaining_keys", len(t.cells))
	}
}

// Stop gracefully stops the cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (t *Throttler) Stop() {
	t.once.Do(func() {
		close(t.stopChan)
	})
	t.wg.Wait()
}

// Size returns the current number of tracked keys.
// Useful for testing and monitoring memory usage.
func (t *Throttler) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cells)
}

// Compile-time interface verification.
var _ entitlement.Throttler = (*Throttler)(nil)
