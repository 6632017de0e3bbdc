// Command detsim ingests a simulation step stream into an event database,
// optionally runs the analysis passes over the stored events and prints
// per-volume energy totals.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("detsim: %v", err)
	}
}
