package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/MatthiasKunnen/lockwatch/internal/monitor"
)

// NotifyContext returns a context that is cancelled when one of signals arrives.
// The cancellation cause is a *monitor.SignalError naming the signal.
// Call stop to release the signal handler.
func NotifyContext(parent context.Context, signals ...os.Signal) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, signals...)

	go func() {
		select {
		case sig := <-c:
			cancel(&monitor.SignalError{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(c)
		cancel(nil)
	}
}
