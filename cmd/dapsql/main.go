package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dapsql/dapsql/cli/commands"
	"github.com/dapsql/dapsql/cli/internal/ui"
	"github.com/dapsql/dapsql/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.NewRootCommand().ExecuteContext(ctx)
	engine.Default.Close()
	if err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
