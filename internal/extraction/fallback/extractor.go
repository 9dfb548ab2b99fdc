package fallback

import (
	"context"
	"errors"
	"log/slog"

	"healthrisk/internal/profile/ports"
	"healthrisk/pkg/platform/circuit"
)

// Extractor calls a primary backend and, once the primary has failed often
// enough to open the breaker, answers failed calls from a secondary backend.
// The primary is always tried first so that successes can close the breaker.
type Extractor struct {
	primary   ports.TextExtractor
	secondary ports.TextExtractor
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

type Option func(*Extractor)

func WithBreaker(b *circuit.Breaker) Option {
	return func(e *Extractor) {
		if b != nil {
			e.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(primary, secondary ports.TextExtractor, opts ...Option) (*Extractor, error) {
	if primary == nil || secondary == nil {
		return nil, errors.New("primary and secondary extractors are required")
	}
	e := &Extractor{
		primary:   primary,
		secondary: secondary,
		breaker:   circuit.New(primary.Backend()),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Extractor) Extract(ctx context.Context, image []byte, mediaType string) ([]ports.TextLine, error) {
	lines, err := e.primary.Extract(ctx, image, mediaType)
	if err == nil {
		if _, change := e.breaker.RecordSuccess(); change.Closed {
			e.logger.InfoContext(ctx, "extraction circuit closed", "backend", e.primary.Backend())
		}
		return lines, nil
	}

	useFallback, change := e.breaker.RecordFailure()
	if change.Opened {
		e.logger.WarnContext(ctx, "extraction circuit opened",
			"backend", e.primary.Backend(),
			"fallback", e.secondary.Backend(),
			"error", err,
		)
	}
	if !useFallback {
		return nil, err
	}

	lines, fbErr := e.secondary.Extract(ctx, image, mediaType)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return lines, nil
}

func (e *Extractor) Backend() string {
	return e.primary.Backend() + "+" + e.secondary.Backend()
}
