package journal

import (
	"time"
)

// PaymentAttempt is the durable record of one payment session milestone.
// The idempotency key makes replays collapse onto a single row.
type PaymentAttempt struct {
	ID              string    `gorm:"column:id;primaryKey"`
	IdempotencyKey  string    `gorm:"column:idempotency_key;uniqueIndex:uq_payment_attempts_idempotency_key"`
	UserID          string    `gorm:"column:user_id;index:idx_payment_attempts_user"`
	VendorID        string    `gorm:"column:vendor_id"`
	ProviderOrderID string    `gorm:"column:provider_order_id"`
	Amount          int64     `gorm:"column:amount"`
	Currency        string    `gorm:"column:currency"`
	OrderType       string    `gorm:"column:order_type"`
	State           string    `gorm:"column:state"`
	FailureReason   string    `gorm:"column:failure_reason"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

// TableName maps the model onto the goose-managed table.
func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}

// OrderSnapshot caches a settled order so vendor dashboards can show
// history even when the backend is briefly unreachable. Never served as
// authoritative state.
type OrderSnapshot struct {
	OrderID     string    `gorm:"column:order_id;primaryKey"`
	OrderNumber string    `gorm:"column:order_number"`
	UserID      string    `gorm:"column:user_id"`
	VendorID    string    `gorm:"column:vendor_id;index:idx_order_snapshots_vendor"`
	Status      string    `gorm:"column:status"`
	OrderType   string    `gorm:"column:order_type"`
	Total       int64     `gorm:"column:total"`
	Payload     string    `gorm:"column:payload"`
	SyncedAt    time.Time `gorm:"column:synced_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName maps the model onto the goose-managed table.
func (OrderSnapshot) TableName() string {
	return "order_snapshots"
}
