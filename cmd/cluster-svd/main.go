// Command cluster-svd clusters the rows of a training matrix with k-means,
// optionally after reducing them with a singular value decomposition, and
// writes the ranked cluster centers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cluster-svd: %v\n", err)
		stop()
		os.Exit(1)
	}
}
