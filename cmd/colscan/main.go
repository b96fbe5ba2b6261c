// Command colscan loads line protocol into an in-memory segment and runs a
// timeseries aggregation over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := NewCommand(ctx, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "colscan: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
