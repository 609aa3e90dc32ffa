//go:build windows

package cmd

import (
	"context"
	"os"
	"os/signal"
)

// shutdownContext returns a child of parent that is canceled on an interrupt.
// syscall.SIGTERM cannot be delivered on Windows.
func shutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
		cancel()
	}()

	return ctx, cancel
}
