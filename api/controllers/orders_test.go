package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

type stubOrderSync struct {
	orders []backend.Order
	order  backend.Order
	err    error

	advancedID string
}

func (s *stubOrderSync) SyncVendors(ctx context.Context, vendorIDs []string) error { return s.err }
func (s *stubOrderSync) SyncVendorHistory(ctx context.Context, vendorIDs []string) error {
	return s.err
}
func (s *stubOrderSync) SyncUserActive(ctx context.Context, userID string) ([]backend.Order, error) {
	return s.orders, s.err
}
func (s *stubOrderSync) SyncUserHistory(ctx context.Context, userID string) ([]backend.Order, error) {
	return s.orders, s.err
}
func (s *stubOrderSync) Advance(ctx context.Context, orderID string) (backend.Order, error) {
	s.advancedID = orderID
	return s.order, s.err
}
func (s *stubOrderSync) VendorOrders(ctx context.Context, vendorID string) ([]backend.Order, error) {
	return s.orders, s.err
}
func (s *stubOrderSync) VendorHistory(ctx context.Context, vendorID string) ([]backend.Order, error) {
	return s.orders, s.err
}
func (s *stubOrderSync) UserActive(userID string) []backend.Order  { return s.orders }
func (s *stubOrderSync) UserHistory(userID string) []backend.Order { return s.orders }

func TestAdvanceOrderSuccess(t *testing.T) {
	svc := &stubOrderSync{order: backend.Order{ID: "order-1", Status: enums.OrderStatusReady}}

	router := chi.NewRouter()
	router.Patch("/api/v1/orders/{orderID}/advance", AdvanceOrder(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPatch, "/api/v1/orders/order-1/advance", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.advancedID != "order-1" {
		t.Fatalf("unexpected order id: %s", svc.advancedID)
	}

	var envelope struct {
		Data struct {
			Order backend.Order `json:"order"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Order.Status != enums.OrderStatusReady {
		t.Fatalf("unexpected order status: %s", envelope.Data.Order.Status)
	}
}

func TestAdvanceOrderInFlightConflict(t *testing.T) {
	svc := &stubOrderSync{err: pkgerrors.New(pkgerrors.CodeConflict, "an update for this order is already in flight")}

	router := chi.NewRouter()
	router.Patch("/api/v1/orders/{orderID}/advance", AdvanceOrder(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPatch, "/api/v1/orders/order-1/advance", ""))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdvanceOrderTerminalStateConflict(t *testing.T) {
	svc := &stubOrderSync{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is already in a terminal state")}

	router := chi.NewRouter()
	router.Patch("/api/v1/orders/{orderID}/advance", AdvanceOrder(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPatch, "/api/v1/orders/order-1/advance", ""))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestVendorOrdersReadsMirror(t *testing.T) {
	svc := &stubOrderSync{orders: []backend.Order{{ID: "order-1", VendorID: "vendor-1"}}}

	router := chi.NewRouter()
	router.Get("/api/v1/vendors/{vendorID}/orders", VendorOrders(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/vendors/vendor-1/orders", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Orders []backend.Order `json:"orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 {
		t.Fatalf("expected one mirrored order, got %d", len(envelope.Data.Orders))
	}
}

func TestVendorOrdersBackendFailure(t *testing.T) {
	svc := &stubOrderSync{err: pkgerrors.New(pkgerrors.CodeBackend, "upstream rejected the request")}

	router := chi.NewRouter()
	router.Get("/api/v1/vendors/{vendorID}/orders", VendorOrders(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/vendors/vendor-1/orders", nil))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", resp.Code)
	}
}

func TestVendorOrderHistoryServesOrders(t *testing.T) {
	svc := &stubOrderSync{orders: []backend.Order{{ID: "order-1", VendorID: "vendor-1", Status: enums.OrderStatusDelivered}}}

	router := chi.NewRouter()
	router.Get("/api/v1/vendors/{vendorID}/orders/history", VendorOrderHistory(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/vendors/vendor-1/orders/history", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Orders []backend.Order `json:"orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].Status != enums.OrderStatusDelivered {
		t.Fatalf("unexpected orders: %+v", envelope.Data.Orders)
	}
}
