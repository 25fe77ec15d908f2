package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kampyn/ordering-gateway/pkg/config"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	"github.com/kampyn/ordering-gateway/pkg/httptrack"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.BackendConfig{
		URL:            server.URL,
		RequestTimeout: 5 * time.Second,
		ReadRetries:    2,
		ReadRetryBase:  time.Millisecond,
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	client, err := NewClient(cfg, logg, httptrack.NewTracker(nil))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client, server
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	if _, err := NewClient(config.BackendConfig{}, logg, nil); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true,"orders":[]}`))
	}))

	ctx := WithToken(context.Background(), "session-token")
	if _, err := client.ActiveOrders(ctx, "user-1"); err != nil {
		t.Fatalf("ActiveOrders returned error: %v", err)
	}
	if gotAuth != "Bearer session-token" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestAuthAndDirectoryRequestPaths(t *testing.T) {
	var gotPaths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		w.Write([]byte(`{"success":true,"token":"tok","colleges":[],"vendors":[]}`))
	}))

	ctx := context.Background()
	if _, err := client.Login(ctx, Credentials{Identifier: "asha@iitp.ac.in", Password: "hunter2"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if _, err := client.Colleges(ctx); err != nil {
		t.Fatalf("Colleges returned error: %v", err)
	}
	if _, err := client.Vendors(ctx, "college-1"); err != nil {
		t.Fatalf("Vendors returned error: %v", err)
	}

	want := []string{
		"/api/user/auth/login",
		"/api/user/auth/list",
		"/api/college/college-1/vendors",
	}
	if len(gotPaths) != len(want) {
		t.Fatalf("expected %d requests, got %d: %v", len(want), len(gotPaths), gotPaths)
	}
	for i, path := range want {
		if gotPaths[i] != path {
			t.Fatalf("request %d: expected path %q, got %q", i, path, gotPaths[i])
		}
	}
}

func TestClientSurfacesEnvelopeFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"vendor is closed"}`))
	}))

	_, err := client.GetCart(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected envelope failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeBackend {
		t.Fatalf("expected CodeBackend, got %v", err)
	}
	if typed.Message() != "vendor is closed" {
		t.Fatalf("expected verbatim backend message, got %q", typed.Message())
	}
}

func TestClientMapsHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}

	for _, tc := range cases {
		status := tc.status
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"message":"nope"}`))
		}))

		_, err := client.GetOrder(context.Background(), "order-1")
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != tc.code {
			t.Fatalf("status %d: expected code %s, got %v", tc.status, tc.code, err)
		}
	}
}

func TestClientRetriesIdempotentReads(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true,"colleges":[{"id":"c-1","name":"IIT Patna"}]}`))
	}))

	colleges, err := client.Colleges(context.Background())
	if err != nil {
		t.Fatalf("Colleges returned error after retries: %v", err)
	}
	if len(colleges) != 1 || colleges[0].ID != "c-1" {
		t.Fatalf("unexpected colleges: %+v", colleges)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestClientNeverRetriesMutations(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.CreatePaymentOrder(context.Background(), CreateOrderParams{
		UserID:         "user-1",
		VendorID:       "vendor-1",
		Items:          []CartLine{{ItemID: "item-1", Quantity: 1, Kind: enums.ItemKindRetail}},
		Amount:         7500,
		Currency:       "INR",
		OrderType:      enums.OrderTypeTakeaway,
		IdempotencyKey: "key-1",
	})
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("mutation must not retry, got %d attempts", got)
	}
}

func TestCreatePaymentOrderValidation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid params must not reach the backend")
	}))

	_, err := client.CreatePaymentOrder(context.Background(), CreateOrderParams{UserID: "user-1"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestBulkZipDownloadStreams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK-zip-bytes"))
	}))

	body, contentType, err := client.BulkZipDownload(context.Background(), []string{"inv-1", "inv-2"})
	if err != nil {
		t.Fatalf("BulkZipDownload returned error: %v", err)
	}
	defer body.Close()

	if contentType != "application/zip" {
		t.Fatalf("expected zip content type, got %q", contentType)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if string(payload) != "PK-zip-bytes" {
		t.Fatalf("unexpected stream payload %q", payload)
	}
}
