package bulk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedDelay(t *testing.T) {
	start := time.Now()
	require.NoError(t, FixedDelay{Delay: 20 * time.Millisecond}.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, FixedDelay{Delay: time.Hour}.Wait(ctx), context.Canceled)
	assert.NoError(t, FixedDelay{}.Wait(context.Background()))
}

func TestTokenBucket(t *testing.T) {
	p := NewTokenBucket(1000, 2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(ctx))
	}

	slow := NewTokenBucket(0.001, 1)
	require.NoError(t, slow.Wait(ctx), "burst token is available immediately")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, slow.Wait(ctx))
}

func TestNewPacer(t *testing.T) {
	assert.IsType(t, FixedDelay{}, NewPacer(DefaultDelay, 0, 1))
	assert.IsType(t, &TokenBucket{}, NewPacer(DefaultDelay, 2, 1))
	assert.NoError(t, NoDelay{}.Wait(context.Background()))
}

func TestFlag(t *testing.T) {
	var nilFlag *Flag
	assert.False(t, nilFlag.Raised())
	nilFlag.Raise()

	f := &Flag{}
	assert.False(t, f.Raised())
	f.Raise()
	assert.True(t, f.Raised())
}
