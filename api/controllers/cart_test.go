package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kampyn/ordering-gateway/api/middleware"
	cartsvc "github.com/kampyn/ordering-gateway/internal/cart"
	"github.com/kampyn/ordering-gateway/internal/pricing"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

type stubCartService struct {
	snapshot  cartsvc.Snapshot
	breakdown pricing.Breakdown
	err       error

	lastAdded backend.CartLine
	lastItem  string
	lastKind  enums.ItemKind
}

func (s *stubCartService) Get(ctx context.Context, userID string) (cartsvc.Snapshot, error) {
	return s.snapshot, s.err
}

func (s *stubCartService) Add(ctx context.Context, userID string, item backend.CartLine) (cartsvc.Snapshot, error) {
	s.lastAdded = item
	return s.snapshot, s.err
}

func (s *stubCartService) Increase(ctx context.Context, userID, itemID string, kind enums.ItemKind) (cartsvc.Snapshot, error) {
	s.lastItem, s.lastKind = itemID, kind
	return s.snapshot, s.err
}

func (s *stubCartService) Decrease(ctx context.Context, userID, itemID string, kind enums.ItemKind) (cartsvc.Snapshot, error) {
	s.lastItem, s.lastKind = itemID, kind
	return s.snapshot, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID string) error {
	return s.err
}

func (s *stubCartService) Quote(ctx context.Context, userID string, orderType enums.OrderType) (pricing.Breakdown, cartsvc.Snapshot, error) {
	return s.breakdown, s.snapshot, s.err
}

func decimalFromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
}

func TestAddCartItemSuccess(t *testing.T) {
	svc := &stubCartService{snapshot: cartsvc.Snapshot{Lines: []backend.CartLine{{ItemID: "samosa-1", Quantity: 1}}}}
	handler := AddCartItem(svc, nil)

	body := `{"itemId":"samosa-1","name":"Samosa","price":20,"kind":"Produce","vendorId":"vendor-1"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastAdded.Kind != enums.ItemKindProduce {
		t.Fatalf("unexpected kind: %s", svc.lastAdded.Kind)
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Cart) != 1 || envelope.Data.Cart[0].ItemID != "samosa-1" {
		t.Fatalf("unexpected cart payload: %+v", envelope.Data)
	}
}

func TestAddCartItemRejectsUnknownKind(t *testing.T) {
	handler := AddCartItem(&stubCartService{}, nil)

	body := `{"itemId":"samosa-1","name":"Samosa","price":20,"kind":"Frozen","vendorId":"vendor-1"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetCartMissingUserContext(t *testing.T) {
	handler := GetCart(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDecreaseCartItemPassesKeyThrough(t *testing.T) {
	svc := &stubCartService{}
	handler := DecreaseCartItem(svc, nil)

	body := `{"itemId":"samosa-1","kind":"Produce"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items/decrease", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastItem != "samosa-1" || svc.lastKind != enums.ItemKindProduce {
		t.Fatalf("unexpected step args: %s %s", svc.lastItem, svc.lastKind)
	}
}

func TestQuoteCartReturnsMinorUnits(t *testing.T) {
	svc := &stubCartService{
		breakdown: pricing.Compute(
			[]pricing.Line{{ItemID: "samosa-1", Kind: enums.ItemKindProduce, Quantity: 3, UnitPrice: decimalFromInt(20)}},
			pricing.Charges{Packing: decimalFromInt(5)},
			enums.OrderTypeTakeaway,
		),
	}
	handler := QuoteCart(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart/quote?orderType=takeaway", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalMinorUnits != 7500 {
		t.Fatalf("expected 7500 minor units got %d", envelope.Data.TotalMinorUnits)
	}
}

func TestQuoteCartRejectsBadOrderType(t *testing.T) {
	handler := QuoteCart(&stubCartService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart/quote?orderType=teleport", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestClearCartSurfacesServiceError(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeBackend, "vendor is closed")}
	handler := ClearCart(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodDelete, "/api/v1/cart", ""))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", resp.Code)
	}
}
