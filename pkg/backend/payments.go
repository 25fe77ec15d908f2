package backend

import (
	"context"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/enums"
)

// CreateOrderParams describes the payment order the gateway asks the
// backend to mint. Amount is in minor units and must equal the backend's
// own computation for the same cart, or the call is rejected.
type CreateOrderParams struct {
	UserID         string          `json:"userId"`
	VendorID       string          `json:"vendorId"`
	Items          []CartLine      `json:"items"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	OrderType      enums.OrderType `json:"orderType"`
	CollectorName  string          `json:"collectorName"`
	CollectorPhone string          `json:"collectorPhone"`
	Address        string          `json:"address,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey"`
}

func (p CreateOrderParams) validate() error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	case strings.TrimSpace(p.VendorID) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	case len(p.Items) == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	case p.Amount <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	case !p.OrderType.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order type")
	case strings.TrimSpace(p.IdempotencyKey) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	return nil
}

// CreatePaymentOrder mints a provider order for the given cart. Never
// retried: a duplicate submission could charge the user twice.
func (c *Client) CreatePaymentOrder(ctx context.Context, params CreateOrderParams) (*PaymentOrder, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	var out PaymentOrder
	if err := c.post(ctx, "/vendor-payment/create-order", params, &out); err != nil {
		return nil, err
	}
	if out.ProviderOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBackend, "backend returned no provider order id")
	}
	return &out, nil
}

// PaymentKey fetches the provider's public key for the checkout widget.
func (c *Client) PaymentKey(ctx context.Context) (string, error) {
	var out struct {
		Key string `json:"key"`
	}
	if err := c.get(ctx, "/vendor-payment/key", nil, &out); err != nil {
		return "", err
	}
	if out.Key == "" {
		return "", pkgerrors.New(pkgerrors.CodeBackend, "backend returned empty payment key")
	}
	return out.Key, nil
}

// VerifyParams carries the provider's callback artifacts for signature
// verification.
type VerifyParams struct {
	ProviderOrderID   string `json:"razorpay_order_id"`
	ProviderPaymentID string `json:"razorpay_payment_id"`
	ProviderSignature string `json:"razorpay_signature"`
}

// VerifyPayment asks the backend to verify the provider signature and
// finalize the order. Verification is authoritative and never retried.
func (c *Client) VerifyPayment(ctx context.Context, params VerifyParams) (*VerifiedOrder, error) {
	if params.ProviderOrderID == "" || params.ProviderPaymentID == "" || params.ProviderSignature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification artifacts are incomplete")
	}
	var out VerifiedOrder
	if err := c.post(ctx, "/vendor-payment/verify", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
