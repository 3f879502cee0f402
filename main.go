package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/purehate/wordUP/internal/cli"
	"github.com/purehate/wordUP/internal/config"
)

func main() {
	// SIGINT cancels the run; in-flight requests are abandoned
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(os.Stderr, "\n[!] Interrupted, no results written\n")
		stop()
		os.Exit(130) // Standard exit code for SIGINT
	case errors.Is(err, config.ErrInvalid):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	stop()
	os.Exit(1)
}
