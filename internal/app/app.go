package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/juelinl/pebble/internal/config"
	"github.com/juelinl/pebble/internal/ctxlog"
	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/sequencer"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: one loaded sweep, executed once.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	sweep  *model.Sweep

	// seq is created at the start of Run; the health endpoint reads its
	// progress while a sweep is in flight.
	seq *sequencer.Sequencer

	// httpServer is the health server, set only when a healthcheck port is
	// configured; Run shuts it down when the sweep finishes.
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with the sweep definition already loaded and
// translated into the model. A failure to load the sweep is a fatal startup
// error and panics; the entrypoint recovers to present it cleanly.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	sweep, err := loader.Load(ctx, appConfig.SweepPath)
	if err != nil {
		panic(fmt.Errorf("failed to load sweep definition: %w", err))
	}
	logger.Debug("Sweep definition loaded and translated into unified model.",
		"entries", sweep.Len())

	return &App{
		outW:   outW,
		logger: logger,
		config: appConfig,
		sweep:  sweep,
	}
}

// Sweep returns the loaded sweep model. This is primarily for testing.
func (a *App) Sweep() *model.Sweep {
	return a.sweep
}

// newLogger builds the App's isolated logger; the global default is never
// touched. The CLI validates level and format strings before they get here,
// so anything unparseable just means info-level text.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
