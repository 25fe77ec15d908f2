package journal

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kampyn/ordering-gateway/internal/payment"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

func newTestJournal(t *testing.T) *Service {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&PaymentAttempt{}, &OrderSnapshot{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	repo, err := NewRepository(conn)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(repo, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRecordAttemptUpsertsByIdempotencyKey(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()

	record := payment.AttemptRecord{
		IdempotencyKey: "key-1",
		UserID:         "user-1",
		VendorID:       "vendor-1",
		Amount:         7500,
		Currency:       "INR",
		OrderType:      enums.OrderTypeTakeaway,
		State:          enums.PaymentStateAwaitingUserAction,
	}
	svc.RecordAttempt(ctx, record)

	record.State = enums.PaymentStateSucceeded
	record.ProviderOrderID = "rzp-order-1"
	svc.RecordAttempt(ctx, record)

	attempt, err := svc.repo.AttemptByKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("AttemptByKey: %v", err)
	}
	if attempt.State != enums.PaymentStateSucceeded.String() {
		t.Fatalf("expected succeeded state, got %s", attempt.State)
	}
	if attempt.ProviderOrderID != "rzp-order-1" {
		t.Fatalf("expected provider order id to be updated, got %q", attempt.ProviderOrderID)
	}

	var count int64
	// repeated milestones must not multiply rows
	if err := svc.repo.(*gormRepo).conn.Model(&PaymentAttempt{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one attempt row, got %d", count)
	}
}

func TestRecordOrderCachesTerminalSnapshot(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()

	order := backend.Order{
		ID:          "order-1",
		OrderNumber: "KMP-001",
		UserID:      "user-1",
		VendorID:    "vendor-1",
		Status:      enums.OrderStatusDelivered,
		OrderType:   enums.OrderTypeDelivery,
		Total:       8500,
		CreatedAt:   time.Now().UTC(),
	}
	svc.RecordOrder(ctx, order)

	history, err := svc.VendorHistory(ctx, "vendor-1", 10)
	if err != nil {
		t.Fatalf("VendorHistory: %v", err)
	}
	if len(history) != 1 || history[0].ID != "order-1" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if history[0].Status != enums.OrderStatusDelivered {
		t.Fatalf("unexpected status: %s", history[0].Status)
	}
	if history[0].OrderNumber != "KMP-001" || history[0].Total != 8500 {
		t.Fatalf("payload did not round-trip: %+v", history[0])
	}
}

func TestRecordOrderUpsertsInPlace(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()

	order := backend.Order{
		ID:       "order-1",
		UserID:   "user-1",
		VendorID: "vendor-1",
		Status:   enums.OrderStatusDelivered,
	}
	svc.RecordOrder(ctx, order)
	order.Status = enums.OrderStatusCompleted
	svc.RecordOrder(ctx, order)

	history, err := svc.VendorHistory(ctx, "vendor-1", 10)
	if err != nil {
		t.Fatalf("VendorHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one row, got %d", len(history))
	}
	if history[0].Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", history[0].Status)
	}
}

func TestAttemptLookupByKey(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()

	svc.RecordAttempt(ctx, payment.AttemptRecord{
		IdempotencyKey: "key-1",
		UserID:         "user-1",
		Amount:         7500,
		Currency:       "INR",
		State:          enums.PaymentStateFailed,
		FailureReason:  "signature rejected",
	})

	attempt, err := svc.Attempt(ctx, "key-1")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if attempt.FailureReason != "signature rejected" {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}

	_, err = svc.Attempt(ctx, "key-unknown")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}
