// Package main is the entry point for the datame CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/datame/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Run(ctx, os.Args[1:], cli.Env{
		Getenv: os.Getenv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		stop()
		os.Exit(1)
	}
}
