package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmagar/hlsgrab/internal/ui"
)

// notifyContext cancels the returned context on the first SIGINT/SIGTERM. The item
// in flight still finishes. A second signal exits immediately.
func notifyContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
		case <-done:
			return
		}
		ui.EndProgressLine()
		ui.PrintWarning("Interrupted: finishing the current item. Press Ctrl+C again to abort now")
		cancel()

		select {
		case <-sigCh:
			ui.EndProgressLine()
			ui.PrintError("Aborted")
			os.Exit(exitInterrupted)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}
