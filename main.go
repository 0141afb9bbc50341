// mcproxy serves clients of several game versions from one backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mcproxy/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mcproxy: %v\n", err)
		os.Exit(1)
	}
}
