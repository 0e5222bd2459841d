package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oukeidos/walldisplay/internal/logger"
)

// signalContext is cancelled on SIGINT or SIGTERM so the display loop can
// close the window cleanly.
func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("Shutdown requested", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
