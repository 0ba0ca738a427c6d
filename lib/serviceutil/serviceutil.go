package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Returns a context that will live until Ctrl+C is pressed
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

var exit = os.Exit

// Fatal logs a setup failure and exits with status 1. Deferred calls do
// not run, use it before anything that needs cleaning up.
func Fatal(message string, err error) {
	slog.Error(message, "err", err)
	exit(1)
}
