package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	pkgqueue "TradePulse/pkg/queue"
)

// App encapsulates the entire application lifecycle: tick ingestion, the
// Kafka consumer, the outcome queue, the background recalibration loops and
// the HTTP API.
type App struct {
	cfg          *config.Config
	l            *applogger.Logger
	collector    *usecase.TickCollector
	consumer     *pkgkafka.Consumer
	kh           pkgkafka.MessageHandler
	chClient     *pkgch.Client
	httpServer   *xhttp.Server
	httpHandler  xhttp.Handler
	queue        *pkgqueue.RedisQueue
	tracker      *usecase.OutcomeTracker
	recalibrator *usecase.Recalibrator
	TickProc     *usecase.TickProcessor
}

// New creates a new App instance with the core dependencies. Optional pieces
// are attached through the setters below.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetQueue attaches the on-demand outcome evaluation queue. Nil disables it.
func (a *App) SetQueue(q *pkgqueue.RedisQueue) { a.queue = q }

// SetTracker attaches the outcome tracker sweep loop.
func (a *App) SetTracker(t *usecase.OutcomeTracker) { a.tracker = t }

// SetRecalibrator attaches the weight recalibration loop.
func (a *App) SetRecalibrator(r *usecase.Recalibrator) { a.recalibrator = r }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithHTTPMetrics(a.l, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, serverOpts...)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.l.Error("collector error", applogger.Error(err))
		}
	}()
	a.l.Info("collector started", applogger.Strings("symbols", a.cfg.MarketData.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start outcome queue workers
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.l.Error("outcome queue start error", applogger.Error(err))
		} else {
			a.l.Info("outcome queue started")
		}
	}

	// Background loops: outcome sweep + weight recalibration
	if a.tracker != nil {
		go a.tracker.Run(ctx)
		a.l.Info("outcome tracker started")
	}
	if a.recalibrator != nil {
		go a.recalibrator.Run(ctx)
		a.l.Info("recalibrator started")
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		a.l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop outcome queue workers
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.l.Warn("outcome queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close tick processor resources (publisher/storage)
	if a.TickProc != nil {
		a.TickProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Flush any aggregated logs before the process exits
	a.l.RemoveCollector()

	a.l.Info("shutdown complete")
	return nil
}
