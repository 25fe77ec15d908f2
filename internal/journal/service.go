package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kampyn/ordering-gateway/internal/payment"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

// Service is the write-behind journal. Every method swallows its own
// errors after logging them: losing a journal row must never fail a
// payment or a sync pass.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the journal service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("journal repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// RecordAttempt persists a payment session milestone.
func (s *Service) RecordAttempt(ctx context.Context, record payment.AttemptRecord) {
	now := time.Now().UTC()
	attempt := &PaymentAttempt{
		ID:              uuid.NewString(),
		IdempotencyKey:  record.IdempotencyKey,
		UserID:          record.UserID,
		VendorID:        record.VendorID,
		ProviderOrderID: record.ProviderOrderID,
		Amount:          record.Amount,
		Currency:        record.Currency,
		OrderType:       record.OrderType.String(),
		State:           record.State.String(),
		FailureReason:   record.FailureReason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.UpsertAttempt(ctx, attempt); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, record.UserID), "journal attempt write failed", err)
	}
}

// RecordOrder caches a terminal order snapshot.
func (s *Service) RecordOrder(ctx context.Context, order backend.Order) {
	payload, err := json.Marshal(order)
	if err != nil {
		s.logg.Error(ctx, "journal order encode failed", err)
		return
	}

	now := time.Now().UTC()
	snapshot := &OrderSnapshot{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		VendorID:    order.VendorID,
		Status:      order.Status.String(),
		OrderType:   order.OrderType.String(),
		Total:       order.Total,
		Payload:     string(payload),
		SyncedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.UpsertOrder(ctx, snapshot); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "journal order write failed", err)
	}
}

// VendorHistory decodes cached terminal orders for a vendor dashboard.
// Rows whose payload no longer parses are skipped, not fatal.
func (s *Service) VendorHistory(ctx context.Context, vendorID string, limit int) ([]backend.Order, error) {
	snapshots, err := s.repo.OrdersByVendor(ctx, vendorID, limit)
	if err != nil {
		return nil, err
	}
	orders := make([]backend.Order, 0, len(snapshots))
	for _, snapshot := range snapshots {
		var order backend.Order
		if err := json.Unmarshal([]byte(snapshot.Payload), &order); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, snapshot.OrderID), "journal order decode failed", err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Attempt looks up a payment attempt by its idempotency key, for
// reconciling a disputed charge against what the gateway recorded.
func (s *Service) Attempt(ctx context.Context, idempotencyKey string) (*PaymentAttempt, error) {
	attempt, err := s.repo.AttemptByKey(ctx, idempotencyKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no attempt recorded for this key")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading payment attempt")
	}
	return attempt, nil
}
