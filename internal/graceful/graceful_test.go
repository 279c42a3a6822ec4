package graceful

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWaitAndStop_Signal(t *testing.T) {
	defer goleak.VerifyNone(t)

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM

	var calls atomic.Int32
	got := waitAndStop(context.Background(), signals,
		func() { calls.Add(1) },
		func() { calls.Add(1) },
	)
	require.True(t, got)
	require.Equal(t, int32(2), calls.Load())
}

func TestWaitAndStop_ContextDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	got := waitAndStop(ctx, make(chan os.Signal), func() { calls.Add(1) })
	require.False(t, got)
	require.Zero(t, calls.Load())
}
