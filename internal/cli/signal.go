package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var ErrSignal = errors.New("received termination signal")

// NewSignalContext returns a context that is cancelled by the first
// termination signal, with a cause wrapping ErrSignal. A second SIGINT exits
// the process right away. The returned stop function releases the signal
// handlers and cancels the context.
func NewSignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(
		sigCh,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
		syscall.SIGQUIT,
	)

	done := make(chan struct{})
	go func() {
		interrupted := false
		for {
			select {
			case sig := <-sigCh:
				if interrupted && sig == syscall.SIGINT {
					slog.Error("interrupted twice, exiting")
					os.Exit(1)
				}
				interrupted = sig == syscall.SIGINT

				slog.Info("shutting down", "signal", sig)
				cancel(fmt.Errorf("%w: %s", ErrSignal, sig))
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
			cancel(nil)
		})
	}
	return ctx, stop
}
