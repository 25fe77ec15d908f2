package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/kampyn/ordering-gateway/api/middleware"
	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/api/validators"
	cartsvc "github.com/kampyn/ordering-gateway/internal/cart"
	"github.com/kampyn/ordering-gateway/internal/pricing"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type addCartItemRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Price    int64  `json:"price" validate:"required,gt=0"`
	Kind     string `json:"kind" validate:"required,oneof=Retail Produce"`
	VendorID string `json:"vendorId" validate:"required"`
	ImageURL string `json:"image,omitempty" validate:"omitempty"`
}

type cartLineKeyRequest struct {
	ItemID string `json:"itemId" validate:"required"`
	Kind   string `json:"kind" validate:"required,oneof=Retail Produce"`
}

type cartResponse struct {
	Cart    []backend.CartLine    `json:"cart"`
	Charges backend.VendorCharges `json:"charges"`
}

type quoteResponse struct {
	ItemTotal       decimal.Decimal    `json:"itemTotal"`
	PackingTotal    decimal.Decimal    `json:"packingTotal"`
	DeliveryTotal   decimal.Decimal    `json:"deliveryTotal"`
	GrandTotal      decimal.Decimal    `json:"grandTotal"`
	TotalMinorUnits int64              `json:"totalMinorUnits"`
	Cart            []backend.CartLine `json:"cart"`
}

func newCartResponse(snap cartsvc.Snapshot) cartResponse {
	lines := snap.Lines
	if lines == nil {
		lines = []backend.CartLine{}
	}
	return cartResponse{Cart: lines, Charges: snap.Charges}
}

func newQuoteResponse(breakdown pricing.Breakdown, snap cartsvc.Snapshot) quoteResponse {
	lines := snap.Lines
	if lines == nil {
		lines = []backend.CartLine{}
	}
	return quoteResponse{
		ItemTotal:       breakdown.ItemTotal,
		PackingTotal:    breakdown.PackingTotal,
		DeliveryTotal:   breakdown.DeliveryTotal,
		GrandTotal:      breakdown.GrandTotal,
		TotalMinorUnits: breakdown.MinorUnits(),
		Cart:            lines,
	}
}

func requireUserID(r *http.Request) (string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return userID, nil
}

func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// AddCartItem adds an item at quantity one. Adding an item already in
// the cart is a no-op, not an increment.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseItemKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item kind"))
			return
		}
		snap, err := svc.Add(r.Context(), userID, backend.CartLine{
			ItemID:   payload.ItemID,
			Name:     payload.Name,
			Price:    payload.Price,
			Kind:     kind,
			VendorID: payload.VendorID,
			ImageURL: payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

func IncreaseCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartStep(svc, logg, cartsvc.Service.Increase)
}

func DecreaseCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartStep(svc, logg, cartsvc.Service.Decrease)
}

func cartStep(svc cartsvc.Service, logg *logger.Logger, step func(cartsvc.Service, context.Context, string, string, enums.ItemKind) (cartsvc.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartLineKeyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseItemKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item kind"))
			return
		}
		snap, err := step(svc, r.Context(), userID, payload.ItemID, kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

func ClearCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cartsvc.Snapshot{}))
	}
}

// QuoteCart prices the cart for the requested order type without
// creating anything.
func QuoteCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderType, err := enums.ParseOrderType(r.URL.Query().Get("orderType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}
		breakdown, snap, err := svc.Quote(r.Context(), userID, orderType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteResponse(breakdown, snap))
	}
}
