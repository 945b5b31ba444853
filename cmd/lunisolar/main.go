// Command lunisolar converts instants to the Chinese lunisolar calendar from
// the command line.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/zapponejosh/lunisolar-api/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
