package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterTryConsume(t *testing.T) {
	limiter := NewRateLimiter(60)

	consumed := 0
	for i := 0; i < 60; i++ {
		if limiter.TryConsume() {
			consumed++
		}
	}
	if consumed < 59 {
		t.Errorf("expected to consume roughly the full bucket, got %d", consumed)
	}

	// Bucket should now be (near) empty.
	if limiter.TryConsume() && limiter.TryConsume() {
		t.Error("expected bucket exhaustion")
	}
}

func TestRateLimiterRecordLimitHit(t *testing.T) {
	limiter := NewRateLimiter(60)
	limiter.RecordLimitHit()

	status := limiter.Status()
	if status.TokensAvailable > 1 {
		t.Errorf("expected drained bucket, got %d tokens", status.TokensAvailable)
	}
	if status.LastLimitHit.IsZero() {
		t.Error("expected limit hit recorded")
	}
}

func TestRateLimiterWaitRespectsContext(t *testing.T) {
	limiter := NewRateLimiter(1)
	limiter.RecordLimitHit()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Error("expected context deadline error")
	}
}
