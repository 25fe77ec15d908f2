package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/internal/ordersync"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

// UserActiveOrders serves the caller's active orders, refreshed from the
// backend on every request so the customer view never goes stale.
func UserActiveOrders(svc ordersync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.SyncUserActive(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

func UserOrderHistory(svc ordersync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.SyncUserHistory(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

// VendorOrders serves the mirrored vendor queue, kept fresh by the
// in-process polling tasks. A vendor the polling has not reached yet is
// fetched live once rather than served an empty queue.
func VendorOrders(svc ordersync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := chi.URLParam(r, "vendorID")
		if vendorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required"))
			return
		}
		orders, err := svc.VendorOrders(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

// VendorOrderHistory serves the vendor's terminal orders, from the
// journal cache when the backend is down.
func VendorOrderHistory(svc ordersync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := chi.URLParam(r, "vendorID")
		if vendorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required"))
			return
		}
		orders, err := svc.VendorHistory(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

// AdvanceOrder moves an order one step along its lifecycle. A second
// advance while one is in flight is rejected without reaching the
// backend.
func AdvanceOrder(svc ordersync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id required"))
			return
		}
		order, err := svc.Advance(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"order": order})
	}
}
