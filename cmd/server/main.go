package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"healthrisk/internal/platform/config"
	"healthrisk/internal/platform/httpserver"
	"healthrisk/internal/platform/logger"
	httpmetrics "healthrisk/internal/platform/metrics"
	"healthrisk/internal/platform/middleware"
	"healthrisk/internal/platform/tracing"
	"healthrisk/internal/profile"
	"healthrisk/internal/profile/handler"
	profilemetrics "healthrisk/internal/profile/metrics"
	httptransport "healthrisk/internal/transport/http"
)

// multipartOverhead leaves room for multipart framing around the largest upload.
const multipartOverhead = 1 << 20

// main wires high-level dependencies, exposes the HTTP router and keeps the
// server lifecycle small. Business logic lives in internal/profile.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	svc, err := profile.New(infra.store,
		profile.WithExtractor(infra.extractor),
		profile.WithAuditor(infra.auditor),
		profile.WithMetrics(profilemetrics.New(prometheus.DefaultRegisterer)),
		profile.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build profile service: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORS.AllowedOrigins
	router := httptransport.NewRouter(handler.New(svc, log, cfg.Server.MaxUploadBytes), httptransport.RouterConfig{
		Logger:       log,
		Metrics:      httpmetrics.New(prometheus.DefaultRegisterer),
		Gatherer:     prometheus.DefaultGatherer,
		CORS:         cors,
		MaxBodyBytes: cfg.Server.MaxUploadBytes + multipartOverhead,
		RateLimiter:  middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting healthrisk",
			"addr", cfg.Server.Addr,
			"store", cfg.Store.Backend,
			"extraction", infra.backendName(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("graceful shutdown failed: %w", err))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown failed: %w", err))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
