package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var (
	GitCommit = ""
	GitDate   = ""
)

func main() {
	basectx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := NewApp(GitCommit, GitDate)
	if err := app.RunContext(basectx, os.Args); err != nil {
		slog.Error("Application failed", "err", err)
		os.Exit(1)
	}
}
