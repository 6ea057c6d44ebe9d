package services

import (
	"fmt"

	"github.com/bioclick/bioclick/internal/artifact"
	"github.com/bioclick/bioclick/internal/config"
	"github.com/bioclick/bioclick/internal/dispatch"
	"github.com/bioclick/bioclick/internal/events"
	httpx "github.com/bioclick/bioclick/internal/http"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/notify"
	"github.com/bioclick/bioclick/internal/runner"
)

// App wires the application core: the bus, both runners, the artifact
// store, and the dispatcher. Both front ends are thin layers over it.
type App struct {
	Config     *config.Config
	Bus        *events.Bus
	Dispatcher *dispatch.Dispatcher
	Store      *artifact.Store
	Logger     *logging.Logger
}

// NewApp assembles the core from configuration.
func NewApp(cfg *config.Config, logger *logging.Logger) (*App, error) {
	client, err := httpx.ConfigureClient(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	client = httpx.NewSingleAttemptClient(client)

	store := artifact.NewStore(cfg.Remote.OutputFolder)
	bus := events.NewBus(0)

	local := runner.NewProcessRunner(cfg.Engine.BinaryPath, logger)
	remote := runner.NewRemoteRunner(client, cfg.Remote, store, logger)
	notifier := notify.New(cfg.Notifications, logger)

	return &App{
		Config:     cfg,
		Bus:        bus,
		Dispatcher: dispatch.New(bus, local, remote, cfg.Remote.UploadLimitBytes, logger, notifier),
		Store:      store,
		Logger:     logger,
	}, nil
}

// Close shuts down the event bus, closing all subscriptions.
func (a *App) Close() {
	a.Bus.Close()
}
