// Command codefirst plans and applies the schema of a YAML model file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/syssam/codefirst/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cli.Execute(ctx)
}
