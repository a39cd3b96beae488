package classify

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func drain(rl *rateLimiter) {
	for rl.tryAcquire() {
	}
}

func TestRateLimiterRefillsAfterDrain(t *testing.T) {
	rl := newRateLimiter(6000) // 10ms refill interval
	defer rl.Close()
	drain(rl)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rl.wait(ctx))
}

func TestRateLimiterCloseStopsRefill(t *testing.T) {
	rl := newRateLimiter(6000)
	drain(rl)
	rl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.Error(t, rl.wait(ctx))
}

func TestGatewayCloseReleasesLimiter(t *testing.T) {
	gw := NewGatewayWithClient(&stubClient{response: `{}`}, slog.Default())
	drain(gw.rateLimiter)
	gw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.Error(t, gw.rateLimiter.wait(ctx))
}
