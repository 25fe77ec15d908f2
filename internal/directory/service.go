package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

const collegeCacheTTL = 5 * time.Minute

type backendDirectory interface {
	Colleges(ctx context.Context) ([]backend.College, error)
	Vendors(ctx context.Context, collegeID string) ([]backend.Vendor, error)
}

// Service serves the campus directory. The college list changes rarely,
// so it is cached briefly to keep landing-page loads off the backend.
type Service interface {
	Colleges(ctx context.Context) ([]backend.College, error)
	Vendors(ctx context.Context, collegeID string) ([]backend.Vendor, error)
}

type service struct {
	client backendDirectory
	logg   *logger.Logger

	mu        sync.Mutex
	colleges  []backend.College
	fetchedAt time.Time
}

// NewService builds the directory service.
func NewService(client backendDirectory, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend directory client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, logg: logg}, nil
}

func (s *service) Colleges(ctx context.Context) ([]backend.College, error) {
	s.mu.Lock()
	if s.colleges != nil && time.Since(s.fetchedAt) < collegeCacheTTL {
		cached := make([]backend.College, len(s.colleges))
		copy(cached, s.colleges)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	colleges, err := s.client.Colleges(ctx)
	if err != nil {
		// serve the stale list if we have one
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.colleges != nil {
			s.logg.Warn(ctx, "college list refresh failed, serving cached copy")
			cached := make([]backend.College, len(s.colleges))
			copy(cached, s.colleges)
			return cached, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.colleges = colleges
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return colleges, nil
}

func (s *service) Vendors(ctx context.Context, collegeID string) ([]backend.Vendor, error) {
	return s.client.Vendors(ctx, collegeID)
}
