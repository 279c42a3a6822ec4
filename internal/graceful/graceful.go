package graceful

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// HandleSignals blocks until SIGINT/SIGTERM or until ctx is done. On a signal
// it runs every stopFunc concurrently and waits for them. It reports whether
// a signal was received.
func HandleSignals(ctx context.Context, stopFunc ...func()) bool {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(signals)

	return waitAndStop(ctx, signals, stopFunc...)
}

func waitAndStop(ctx context.Context, signals <-chan os.Signal, stopFunc ...func()) bool {
	select {
	case <-ctx.Done():
		return false
	case <-signals:
	}

	wg := sync.WaitGroup{}
	wg.Add(len(stopFunc))
	for _, f := range stopFunc {
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
	return true
}
