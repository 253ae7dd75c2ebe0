package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oceanbgc/climodiag/internal/app"
	"github.com/oceanbgc/climodiag/internal/cli"
	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/hclconf"
	"github.com/oceanbgc/climodiag/internal/yamlconf"
)

// main is the entrypoint for the climodiag application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	loader, err := loaderFor(appConfig.ConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diagApp := app.NewApp(outW, appConfig, loader)
	return diagApp.Run(ctx)
}

// loaderFor picks the configuration front end from the document's file
// extension.
func loaderFor(path string) (config.Loader, error) {
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return yamlconf.NewLoader(), nil
	case ".hcl":
		return hclconf.NewLoader(), nil
	}
	return nil, fmt.Errorf("unsupported configuration format %q (expected .yml, .yaml, or .hcl)", filepath.Ext(path))
}
