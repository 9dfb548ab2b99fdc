package main

import (
	"context"
	"fmt"
	"log/slog"

	"healthrisk/internal/extraction/fallback"
	"healthrisk/internal/extraction/ocrhttp"
	"healthrisk/internal/extraction/vision"
	"healthrisk/internal/platform/config"
	"healthrisk/internal/platform/postgres"
	"healthrisk/internal/platform/redis"
	"healthrisk/internal/profile"
	"healthrisk/internal/profile/ports"
	"healthrisk/internal/profile/store"
	"healthrisk/pkg/platform/audit/kafka"
	"healthrisk/pkg/platform/audit/publisher"
	auditmemory "healthrisk/pkg/platform/audit/store/memory"
	"healthrisk/pkg/platform/circuit"
)

// infra holds the backing services selected by configuration.
type infra struct {
	store     profile.AssessmentStore
	extractor ports.TextExtractor
	auditor   ports.AuditPort
	closers   []func()
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func (i *infra) backendName() string {
	if i.extractor == nil {
		return config.ExtractionNone
	}
	return i.extractor.Backend()
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	i := &infra{}
	ok := false
	defer func() {
		if !ok {
			i.close()
		}
	}()

	if err := i.buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if err := i.buildAuditor(ctx, cfg, log); err != nil {
		return nil, err
	}
	extractor, err := buildExtractor(cfg.Extraction, log)
	if err != nil {
		return nil, err
	}
	i.extractor = extractor

	ok = true
	return i, nil
}

func (i *infra) buildStore(ctx context.Context, cfg config.Config) error {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		i.closers = append(i.closers, func() { _ = client.Close() })
		i.store = store.NewRedisStore(client.Client, store.WithTTL(cfg.Store.TTL))
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		i.closers = append(i.closers, func() { _ = db.Close() })
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure assessment schema: %w", err)
		}
		i.store = pg
	default:
		i.store = store.NewInMemoryStore()
	}
	return nil
}

func (i *infra) buildAuditor(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("create kafka audit publisher: %w", err)
		}
		i.closers = append(i.closers, pub.Close)
		if err := pub.EnsureTopic(ctx, 1, 1); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		i.auditor = pub
		return nil
	}

	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore(),
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	)
	i.closers = append(i.closers, pub.Close)
	i.auditor = pub
	return nil
}

// buildExtractor returns nil when no backend is configured. A configured fallback
// sits behind a circuit breaker guarding the primary backend.
func buildExtractor(cfg config.ExtractionConfig, log *slog.Logger) (ports.TextExtractor, error) {
	primary, err := newExtractor(cfg.Backend, cfg)
	if err != nil {
		return nil, err
	}
	secondary, err := newExtractor(cfg.Fallback, cfg)
	if err != nil {
		return nil, err
	}
	switch {
	case primary == nil:
		return secondary, nil
	case secondary == nil:
		return primary, nil
	}
	breaker := circuit.New(primary.Backend(), circuit.WithFailureThreshold(cfg.FailureThreshold))
	return fallback.New(primary, secondary, fallback.WithBreaker(breaker), fallback.WithLogger(log))
}

func newExtractor(backend string, cfg config.ExtractionConfig) (ports.TextExtractor, error) {
	switch backend {
	case config.ExtractionHTTP:
		client, err := ocrhttp.NewClient(cfg.OCRURL, ocrhttp.WithTimeout(cfg.OCRTimeout))
		if err != nil {
			return nil, fmt.Errorf("create ocr client: %w", err)
		}
		return client, nil
	case config.ExtractionAnthropic:
		var opts []vision.Option
		if cfg.AnthropicModel != "" {
			opts = append(opts, vision.WithModel(cfg.AnthropicModel))
		}
		extractor, err := vision.New(cfg.AnthropicAPIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("create vision extractor: %w", err)
		}
		return extractor, nil
	default:
		return nil, nil
	}
}
