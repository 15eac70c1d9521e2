package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"urlguard/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "urlguard: %v\n", err)
		stop()
		os.Exit(1)
	}
}
