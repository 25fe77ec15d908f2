package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/enums"
)

// Line is one priced cart entry. UnitPrice is in rupees.
type Line struct {
	ItemID    string
	Kind      enums.ItemKind
	Quantity  int
	UnitPrice decimal.Decimal
}

// Charges is the vendor's charge schedule in rupees. Packing applies per
// unit of each Produce line; Delivery is flat per order.
type Charges struct {
	Packing  decimal.Decimal
	Delivery decimal.Decimal
}

// Breakdown is the deterministic price decomposition of a cart. All
// components are non-negative and GrandTotal is their exact sum.
type Breakdown struct {
	ItemTotal     decimal.Decimal
	PackingTotal  decimal.Decimal
	DeliveryTotal decimal.Decimal
	GrandTotal    decimal.Decimal
}

// FromCart converts a backend cart line into a pricing line.
func FromCart(line backend.CartLine) Line {
	return Line{
		ItemID:    line.ItemID,
		Kind:      line.Kind,
		Quantity:  line.Quantity,
		UnitPrice: decimal.NewFromInt(line.Price),
	}
}

// FromCartLines converts a whole backend cart.
func FromCartLines(lines []backend.CartLine) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, FromCart(line))
	}
	return out
}

// ChargesFromVendor converts the backend charge schedule.
func ChargesFromVendor(charges backend.VendorCharges) Charges {
	return Charges{
		Packing:  decimal.NewFromInt(charges.PackingCharge),
		Delivery: decimal.NewFromInt(charges.DeliveryCharge),
	}
}

// Compute derives the price breakdown for a cart. Packing is charged only
// on Produce lines; delivery only on delivery orders. Lines with
// non-positive quantity contribute nothing.
func Compute(lines []Line, charges Charges, orderType enums.OrderType) Breakdown {
	itemTotal := decimal.Zero
	packingTotal := decimal.Zero

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		itemTotal = itemTotal.Add(line.UnitPrice.Mul(qty))
		if line.Kind == enums.ItemKindProduce {
			packingTotal = packingTotal.Add(charges.Packing.Mul(qty))
		}
	}

	deliveryTotal := decimal.Zero
	if orderType == enums.OrderTypeDelivery {
		deliveryTotal = charges.Delivery
	}

	return Breakdown{
		ItemTotal:     itemTotal,
		PackingTotal:  packingTotal,
		DeliveryTotal: deliveryTotal,
		GrandTotal:    itemTotal.Add(packingTotal).Add(deliveryTotal),
	}
}

// MinorUnits converts the grand total to paise, rounding half away from
// zero. This is the amount handed to the payment provider.
func (b Breakdown) MinorUnits() int64 {
	return b.GrandTotal.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// VerifyAmount checks a provider-quoted amount (paise) against the local
// computation. A mismatch is a hard abort: the widget must never open with
// a disputed figure.
func (b Breakdown) VerifyAmount(quoted int64) error {
	expected := b.MinorUnits()
	if quoted == expected {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeAmountMismatch, "quoted amount does not match computed total").
		WithDetails(map[string]int64{
			"expected_minor_units": expected,
			"quoted_minor_units":   quoted,
		})
}
