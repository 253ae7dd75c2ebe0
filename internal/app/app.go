package app

import (
	"io"
	"log/slog"

	"github.com/oceanbgc/climodiag/internal/config"
	"github.com/oceanbgc/climodiag/internal/source"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  config.Loader
	sources *source.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. The configuration
// document itself is loaded per run, so watch mode always picks up edits.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		loader:  loader,
		sources: source.NewRegistry(),
	}
}

// Sources returns the application's data-source registry. This is primarily
// for testing.
func (a *App) Sources() *source.Registry {
	return a.sources
}
