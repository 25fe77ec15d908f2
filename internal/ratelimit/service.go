package ratelimit

import (
	"context"
	"fmt"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type backendRateLimits interface {
	RateLimits(ctx context.Context) ([]backend.RateLimitRule, error)
	ReleaseRateLimit(ctx context.Context, key string) error
}

// Service relays the admin rate-limit table.
type Service interface {
	List(ctx context.Context) ([]backend.RateLimitRule, error)
	Release(ctx context.Context, key string) error
}

type service struct {
	client backendRateLimits
	logg   *logger.Logger
}

// NewService builds the rate-limit admin service.
func NewService(client backendRateLimits, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend rate-limit client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]backend.RateLimitRule, error) {
	return s.client.RateLimits(ctx)
}

func (s *service) Release(ctx context.Context, key string) error {
	if err := s.client.ReleaseRateLimit(ctx, key); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "rate_limit_key", key), "rate limit released")
	return nil
}
