package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SwingDesk/internal/handler/api"
	mid "SwingDesk/internal/middleware"
	"SwingDesk/internal/usecase"
	"SwingDesk/pkg/cache"
	"SwingDesk/pkg/config"
	xhttp "SwingDesk/pkg/http"
	pkgkafka "SwingDesk/pkg/kafka"
	applogger "SwingDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	hub        *api.Hub
	refresher  *usecase.Refresher
	sink       *usecase.DecisionSink
	cache      cache.Service

	// stream ingestion, nil when no snapshots topic is configured
	pipeline *mid.DecisionPipeline
	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	hub *api.Hub,
	refresher *usecase.Refresher,
	sink *usecase.DecisionSink,
	c cache.Service,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log.Component("app"),
		httpServer: httpServer,
		hub:        hub,
		refresher:  refresher,
		sink:       sink,
		cache:      c,
	}
}

// SetIngestion attaches the snapshot stream consumer and its pipeline.
func (a *App) SetIngestion(pipe *mid.DecisionPipeline, consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.pipeline = pipe
	a.consumer = consumer
	a.kh = kh
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.hub.Run(runCtx)

	if a.pipeline != nil {
		a.pipeline.Start(runCtx)
	}
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.refresher.Start(runCtx); err != nil {
		return err
	}
	a.log.Info("refresher started",
		applogger.Int("symbols", len(a.cfg.Scanner.Symbols)),
		applogger.Duration("interval", a.cfg.Scanner.RefreshInterval),
		applogger.Bool("market_hours_only", a.cfg.Scanner.MarketHoursOnly),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown(runCtx, cancel)
}

// shutdown stops producers of work before the sinks they write to.
func (a *App) shutdown(ctx context.Context, stopRun context.CancelFunc) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.refresher.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("refresher stop error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.pipeline != nil {
		a.pipeline.Stop()
	}

	stopRun()

	if err := a.sink.Close(); err != nil {
		a.log.Warn("sink close error", applogger.Error(err))
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
