package journal

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists journal rows. Writes are upserts so repeated
// milestones for the same attempt or order collapse in place.
type Repository interface {
	UpsertAttempt(ctx context.Context, attempt *PaymentAttempt) error
	UpsertOrder(ctx context.Context, snapshot *OrderSnapshot) error
	AttemptByKey(ctx context.Context, idempotencyKey string) (*PaymentAttempt, error)
	OrdersByVendor(ctx context.Context, vendorID string, limit int) ([]OrderSnapshot, error)
}

type gormRepo struct {
	conn *gorm.DB
}

// NewRepository wraps the shared GORM connection.
func NewRepository(conn *gorm.DB) (Repository, error) {
	if conn == nil {
		return nil, fmt.Errorf("gorm connection required")
	}
	return &gormRepo{conn: conn}, nil
}

func (r *gormRepo) UpsertAttempt(ctx context.Context, attempt *PaymentAttempt) error {
	return r.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "idempotency_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"provider_order_id", "state", "failure_reason", "updated_at",
			}),
		}).
		Create(attempt).Error
}

func (r *gormRepo) UpsertOrder(ctx context.Context, snapshot *OrderSnapshot) error {
	return r.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "payload", "synced_at", "updated_at",
			}),
		}).
		Create(snapshot).Error
}

func (r *gormRepo) AttemptByKey(ctx context.Context, idempotencyKey string) (*PaymentAttempt, error) {
	var attempt PaymentAttempt
	err := r.conn.WithContext(ctx).
		Where("idempotency_key = ?", idempotencyKey).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *gormRepo) OrdersByVendor(ctx context.Context, vendorID string, limit int) ([]OrderSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	var snapshots []OrderSnapshot
	err := r.conn.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
