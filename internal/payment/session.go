package payment

import (
	"time"

	"github.com/kampyn/ordering-gateway/internal/pricing"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
)

// Session tracks one payment attempt for one user. Exactly one session
// exists per user at a time; a terminal session stays visible until the
// user explicitly starts over.
type Session struct {
	UserID          string               `json:"userId"`
	VendorID        string               `json:"vendorId"`
	State           enums.PaymentState   `json:"state"`
	OrderType       enums.OrderType      `json:"orderType"`
	Amount          int64                `json:"amount"`
	Currency        string               `json:"currency"`
	IdempotencyKey  string               `json:"idempotencyKey"`
	ProviderOrderID string               `json:"providerOrderId,omitempty"`
	CheckoutKey     string               `json:"checkoutKey,omitempty"`
	Breakdown       pricing.Breakdown    `json:"-"`
	Order           *backend.VerifiedOrder `json:"order,omitempty"`
	FailureReason   string               `json:"failureReason,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// allowedTransitions is the full transition table. Anything absent is a
// state conflict; there are deliberately no edges out of a terminal state
// except the explicit reset to idle.
var allowedTransitions = map[enums.PaymentState][]enums.PaymentState{
	enums.PaymentStateIdle:     {enums.PaymentStateCreating},
	enums.PaymentStateCreating: {enums.PaymentStateAwaitingUserAction, enums.PaymentStateFailed},
	enums.PaymentStateAwaitingUserAction: {enums.PaymentStateVerifying, enums.PaymentStateCancelled},
	enums.PaymentStateVerifying:          {enums.PaymentStateSucceeded, enums.PaymentStateFailed},
	enums.PaymentStateSucceeded:          {enums.PaymentStateIdle},
	enums.PaymentStateFailed:             {enums.PaymentStateIdle},
	enums.PaymentStateCancelled:          {enums.PaymentStateIdle},
}

func canTransition(from, to enums.PaymentState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Session) transition(to enums.PaymentState) bool {
	if !canTransition(s.State, to) {
		return false
	}
	s.State = to
	s.UpdatedAt = time.Now().UTC()
	return true
}
