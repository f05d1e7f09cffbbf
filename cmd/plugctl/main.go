// Package main содержит plugctl, консольный клиент REST API каталога.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lemiel/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, config.LoadClient(), os.Args[1:], os.Stdout, os.Stderr))
}
