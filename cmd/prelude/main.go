// Package main is the prelude command: record writing sessions and replay
// them on a compressed timeline.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/prelude/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
