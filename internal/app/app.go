package app

import (
	"github.com/xpanvictor/hirect/internal/config"
	"github.com/xpanvictor/hirect/internal/relay"
	"github.com/xpanvictor/hirect/internal/server"
	"github.com/xpanvictor/hirect/pkg/Logger"
	"github.com/xpanvictor/hirect/pkg/assistant"
)

// App represents the application with all its dependencies
type App struct {
	Config     *config.Settings
	Logger     *Logger.Logger
	Assistant  assistant.Assistant
	Correlator *relay.Correlator
	Manager    *relay.Manager
	ServerDeps server.Dependencies
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.setupDependencies(); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) setupDependencies() error {
	backend, err := NewAssistantFactory(a.Config, a.Logger).Create()
	if err != nil {
		return err
	}
	a.Assistant = backend

	a.Correlator = relay.NewCorrelator()
	a.Manager = relay.NewManager(a.Logger)

	a.ServerDeps = server.NewServerDependencies(
		a.Assistant,
		a.Correlator,
		a.Manager,
		a.Logger,
		a.Config,
	)
	return nil
}

// Close releases process-wide resources.
func (a *App) Close() error {
	return a.Manager.Close()
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}
