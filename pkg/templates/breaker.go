package templates

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DSACMS/process-information-api/pkg/circuitbreaker"
	"github.com/DSACMS/process-information-api/pkg/core"
)

type breakerStore struct {
	next    Store
	breaker circuitbreaker.Breaker
	logger  *slog.Logger
}

// NewBreakerStore fails fetches fast while the breaker is open. Only storage
// errors count as breaker failures.
func NewBreakerStore(next Store, breaker circuitbreaker.Breaker, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &breakerStore{
		next:    next,
		breaker: breaker,
		logger:  logger.With(slog.String("component", "templates")),
	}
}

func (s *breakerStore) Fetch(ctx context.Context) ([]byte, error) {
	if err := s.breaker.Allow(ctx); err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			s.logger.WarnContext(ctx, "template fetch rejected by open breaker")
			return nil, core.NewStorageUnavailableError("template storage is unavailable", err)
		}
		return nil, core.NewStorageUnavailableError("template storage state is unknown", err)
	}

	data, err := s.next.Fetch(ctx)
	if err != nil {
		// a caller that went away says nothing about storage health
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, core.ErrStorage) {
			s.breaker.OnFailure(ctx)
		}
		return nil, err
	}

	s.breaker.OnSuccess(ctx)
	return data, nil
}
