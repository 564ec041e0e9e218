package github

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterUpdateStatus(t *testing.T) {
	rl := NewRateLimiter(0)
	reset := time.Now().Add(30 * time.Minute)

	rl.Update(1234, reset)

	remaining, resetAt := rl.Status()
	assert.Equal(t, 1234, remaining)
	assert.True(t, resetAt.Equal(reset))
}

func TestRateLimiterWaitWithHealthyQuota(t *testing.T) {
	rl := NewRateLimiter(0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rl.Wait(ctx))
}

func TestRateLimiterWaitRecoversAfterPastReset(t *testing.T) {
	rl := NewRateLimiter(0)
	rl.Update(0, time.Now().Add(-time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rl.Wait(ctx))

	remaining, _ := rl.Status()
	assert.Equal(t, defaultRemaining, remaining, "an elapsed reset window restores the default quota")
}

func TestRateLimiterWaitHonorsCancellation(t *testing.T) {
	rl := NewRateLimiter(0)
	rl.Update(0, time.Now().Add(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, rl.Wait(ctx))
}
