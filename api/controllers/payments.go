package controllers

import (
	"context"
	"net/http"

	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/api/validators"
	"github.com/kampyn/ordering-gateway/internal/payment"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type beginPaymentRequest struct {
	VendorID       string `json:"vendorId" validate:"required"`
	OrderType      string `json:"orderType" validate:"required,oneof=dinein takeaway delivery"`
	CollectorName  string `json:"collectorName" validate:"required"`
	CollectorPhone string `json:"collectorPhone" validate:"required,min=10"`
	Address        string `json:"address,omitempty" validate:"omitempty"`
}

type verifyPaymentRequest struct {
	ProviderOrderID   string `json:"razorpay_order_id" validate:"required"`
	ProviderPaymentID string `json:"razorpay_payment_id" validate:"required"`
	ProviderSignature string `json:"razorpay_signature" validate:"required"`
}

// BeginPayment opens a payment session for the caller's cart. The
// response carries everything the payment widget needs.
func BeginPayment(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload beginPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderType, err := enums.ParseOrderType(payload.OrderType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type"))
			return
		}
		session, err := svc.Begin(r.Context(), payment.BeginParams{
			UserID:         userID,
			VendorID:       payload.VendorID,
			OrderType:      orderType,
			CollectorName:  payload.CollectorName,
			CollectorPhone: payload.CollectorPhone,
			Address:        payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// ConfirmPayment hands the provider artifacts to the backend for
// verification and settles the session either way.
func ConfirmPayment(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.Confirm(r.Context(), userID, backend.VerifyParams{
			ProviderOrderID:   payload.ProviderOrderID,
			ProviderPaymentID: payload.ProviderPaymentID,
			ProviderSignature: payload.ProviderSignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CancelPayment(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionStep(svc, logg, payment.Service.Cancel)
}

func ResetPayment(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionStep(svc, logg, payment.Service.Reset)
}

func CurrentPayment(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionStep(svc, logg, payment.Service.Current)
}

func sessionStep(svc payment.Service, logg *logger.Logger, step func(payment.Service, context.Context, string) (payment.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := step(svc, r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}
