package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"flowcanvas/internal/gateway/config"
	"flowcanvas/internal/gateway/handler"
	"flowcanvas/internal/gateway/handler/rpc"
	"flowcanvas/internal/gateway/server"
	"flowcanvas/internal/gateway/service/editor"
	flowsvc "flowcanvas/internal/gateway/service/flows"
)

type App struct {
	server *server.Server
	stores *flowStore
	logger *slog.Logger
}

// New wires config, logging, storage, services and handlers. Logs go to
// logW.
func New(ctx context.Context, logW io.Writer) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApp(ctx, cfg, logW)
}

func newApp(ctx context.Context, cfg *config.Config, logW io.Writer) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Info("starting flowcanvas gateway", slog.String("env", cfg.Env), slog.String("store", string(cfg.Store.Kind)))

	stores, err := initFlowStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Services
	flowService := flowsvc.New(stores.store)
	sessions, err := editor.NewManager(flowService, logger, editor.Config{MaxSessions: cfg.Editor.MaxSessions})
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	// Handlers
	flowsHandler := handler.NewFlowsHandler(flowService)
	editorHandler := handler.NewEditorHandler(sessions, flowService)
	flowRPC := rpc.NewFlowHandler(flowService)

	// Routing & Server
	mux := server.NewMux(logger, cfg.AllowedOrigins, flowsHandler, editorHandler, flowRPC)
	srv := server.New(cfg.Port, mux, logger)

	return &App{
		server: srv,
		stores: stores,
		logger: logger,
	}, nil
}

func (a *App) Logger() *slog.Logger { return a.logger }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.stores.Close())
}
