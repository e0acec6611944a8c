// Command expenses is the terminal front end: list, add and delete
// expenses, manage categories, show the dashboard and export to xlsx.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"expenses/internal/app"
	"expenses/internal/cli"
	"expenses/internal/log"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		return 1
	}
	defer closeStore()

	state := app.New(st, app.WithLogger(logger))
	events := cli.ConnectEvents(cfg, logger)
	if events != nil {
		defer events.Close()
	}
	unsubscribe := cli.SubscribeEvents(state, events, logger)
	defer unsubscribe()

	cmd := &command{state: state, in: os.Stdin, out: os.Stdout, exportPath: cfg.ExportPath}
	if err := cmd.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
