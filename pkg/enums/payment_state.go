package enums

// PaymentState tracks a single checkout attempt against the payment provider.
type PaymentState string

const (
	PaymentStateIdle               PaymentState = "idle"
	PaymentStateCreating           PaymentState = "creating"
	PaymentStateAwaitingUserAction PaymentState = "awaiting_user_action"
	PaymentStateVerifying          PaymentState = "verifying"
	PaymentStateSucceeded          PaymentState = "succeeded"
	PaymentStateFailed             PaymentState = "failed"
	PaymentStateCancelled          PaymentState = "cancelled"
)

// String implements fmt.Stringer.
func (p PaymentState) String() string {
	return string(p)
}

// IsTerminal reports whether the state ends the checkout attempt. Terminal
// attempts discard their provider session; the cart is preserved except on
// success.
func (p PaymentState) IsTerminal() bool {
	switch p {
	case PaymentStateSucceeded, PaymentStateFailed, PaymentStateCancelled:
		return true
	default:
		return false
	}
}
