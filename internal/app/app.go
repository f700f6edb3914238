package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zexario/zexario-backend/internal/domain/order"
	"github.com/zexario/zexario-backend/internal/handler"
	"github.com/zexario/zexario-backend/internal/storage"
	"github.com/zexario/zexario-backend/pkg/health"
)

// Telemetry provides the OpenTelemetry providers; *app.Telemetry from
// go-faster/sdk satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	store := openStorage(ctx, lg, cfg.Storage)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			lg.Warn("Storage close failed", zap.Error(err))
		}
	}()

	orders, err := order.NewService(store.Orders, order.ServiceConfig{
		WriteTimeout:   cfg.Storage.WriteTimeout,
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	hc := health.New()
	hc.Ready.Add("storage", 5*time.Second, store.Ping)
	hc.Live.Add("goroutines", time.Second, health.GoroutineCountCheck(10000))
	hc.Start(ctx, 10*time.Second)
	defer hc.Stop()
	hc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Storage.WriteTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			NewRouter(lg, handler.NewHandler(orders), hc),
			"zexario-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			// Regular shutdown: let load balancers see /readyz fail first.
			hc.SetReady(false)
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	return g.Wait()
}

// openStorage opens the configured store. Failures are logged and replaced
// by an unavailable store so the server keeps answering; checkout then fails
// with 500 and /readyz reports the cause.
func openStorage(ctx context.Context, lg *zap.Logger, cfg StorageConfig) *storage.Store {
	store, err := storage.Open(ctx, cfg.URI, cfg.ConnectTimeout)
	if err != nil {
		lg.Error("Storage connection failed", zap.Error(err))
		return storage.Unavailable(err)
	}

	go func() {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			lg.Error("Storage connection failed", zap.String("kind", store.Kind), zap.Error(err))
			return
		}
		lg.Info("Storage connected", zap.String("kind", store.Kind))
	}()

	return store
}
