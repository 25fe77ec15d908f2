package ordersync

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/config"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type fakeBackendOrders struct {
	mu            sync.Mutex
	delivery      map[string][]backend.Order
	history       map[string][]backend.Order
	orders        map[string]backend.Order
	deliveryCalls int
	historyErr    error
	advanceCalls  int
	advanceErr    error
	advanceGate   chan struct{}
	failVendor    string
}

func newFakeOrders() *fakeBackendOrders {
	return &fakeBackendOrders{
		delivery: make(map[string][]backend.Order),
		history:  make(map[string][]backend.Order),
		orders:   make(map[string]backend.Order),
	}
}

func (f *fakeBackendOrders) ActiveOrders(ctx context.Context, userID string) ([]backend.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backend.Order
	for _, o := range f.orders {
		if o.UserID == userID && !o.Status.IsTerminal() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeBackendOrders) PastOrders(ctx context.Context, userID string) ([]backend.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backend.Order
	for _, o := range f.orders {
		if o.UserID == userID && o.Status.IsTerminal() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeBackendOrders) DeliveryOrders(ctx context.Context, vendorID string) ([]backend.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveryCalls++
	if vendorID == f.failVendor {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendor feed down")
	}
	return f.delivery[vendorID], nil
}

func (f *fakeBackendOrders) VendorOrderHistory(ctx context.Context, vendorID string) ([]backend.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[vendorID], nil
}

func (f *fakeBackendOrders) GetOrder(ctx context.Context, orderID string) (*backend.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &order, nil
}

func (f *fakeBackendOrders) AdvanceOrder(ctx context.Context, orderID string) (*backend.Order, error) {
	f.mu.Lock()
	f.advanceCalls++
	gate := f.advanceGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}
	order := f.orders[orderID]
	next, ok := nextStatus(order)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "terminal order")
	}
	order.Status = next
	order.UpdatedAt = time.Now().UTC()
	f.orders[orderID] = order
	return &order, nil
}

type recordedOrders struct {
	mu     sync.Mutex
	orders []backend.Order
}

func (r *recordedOrders) RecordOrder(ctx context.Context, order backend.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
}

func syncLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func sampleOrder(id, vendorID string, status enums.OrderStatus, orderType enums.OrderType) backend.Order {
	return backend.Order{
		ID:        id,
		UserID:    "user-1",
		VendorID:  vendorID,
		Status:    status,
		OrderType: orderType,
		Total:     7500,
		CreatedAt: time.Now().UTC(),
	}
}

func newSyncService(t *testing.T, fake *fakeBackendOrders, recorder SnapshotRecorder) Service {
	t.Helper()
	svc, err := NewService(fake, recorder, syncLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSyncVendorsMirrorsDeliveryOrders(t *testing.T) {
	fake := newFakeOrders()
	order := sampleOrder("order-1", "vendor-1", enums.OrderStatusOnTheWay, enums.OrderTypeDelivery)
	fake.delivery["vendor-1"] = []backend.Order{order}
	svc := newSyncService(t, fake, nil)

	if err := svc.SyncVendors(context.Background(), []string{"vendor-1"}); err != nil {
		t.Fatalf("SyncVendors: %v", err)
	}
	mirrored, err := svc.VendorOrders(context.Background(), "vendor-1")
	if err != nil {
		t.Fatalf("VendorOrders: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0].ID != "order-1" {
		t.Fatalf("unexpected mirror: %+v", mirrored)
	}
}

func TestSyncVendorsAggregatesFailures(t *testing.T) {
	fake := newFakeOrders()
	fake.failVendor = "vendor-bad"
	fake.delivery["vendor-ok"] = []backend.Order{
		sampleOrder("order-1", "vendor-ok", enums.OrderStatusReady, enums.OrderTypeDelivery),
	}
	svc := newSyncService(t, fake, nil)

	err := svc.SyncVendors(context.Background(), []string{"vendor-bad", "vendor-ok"})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	// the healthy vendor must still be mirrored
	mirrored, err := svc.VendorOrders(context.Background(), "vendor-ok")
	if err != nil {
		t.Fatalf("VendorOrders: %v", err)
	}
	if len(mirrored) != 1 {
		t.Fatal("healthy vendor skipped because of a failing one")
	}
}

func TestAdvanceFollowsLifecycle(t *testing.T) {
	fake := newFakeOrders()
	fake.orders["order-1"] = sampleOrder("order-1", "vendor-1", enums.OrderStatusInProgress, enums.OrderTypeDelivery)
	svc := newSyncService(t, fake, nil)

	ctx := context.Background()
	steps := []enums.OrderStatus{
		enums.OrderStatusReady,
		enums.OrderStatusOnTheWay,
		enums.OrderStatusDelivered,
	}
	for _, want := range steps {
		order, err := svc.Advance(ctx, "order-1")
		if err != nil {
			t.Fatalf("Advance to %s: %v", want, err)
		}
		if order.Status != want {
			t.Fatalf("expected %s, got %s", want, order.Status)
		}
	}

	if _, err := svc.Advance(ctx, "order-1"); err == nil {
		t.Fatal("terminal order must not advance")
	}
}

func TestAdvanceCounterOrderSkipsOnTheWay(t *testing.T) {
	fake := newFakeOrders()
	fake.orders["order-1"] = sampleOrder("order-1", "vendor-1", enums.OrderStatusReady, enums.OrderTypeTakeaway)
	svc := newSyncService(t, fake, nil)

	order, err := svc.Advance(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", order.Status)
	}
}

func TestDoubleAdvanceIssuesExactlyOnePatch(t *testing.T) {
	fake := newFakeOrders()
	fake.orders["order-1"] = sampleOrder("order-1", "vendor-1", enums.OrderStatusInProgress, enums.OrderTypeDelivery)
	fake.advanceGate = make(chan struct{})
	svc := newSyncService(t, fake, nil)

	ctx := context.Background()
	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Advance(ctx, "order-1")
		firstDone <- err
	}()

	// wait until the first PATCH is in flight
	deadline := time.After(2 * time.Second)
	for {
		fake.mu.Lock()
		calls := fake.advanceCalls
		fake.mu.Unlock()
		if calls == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first advance never reached the backend")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := svc.Advance(ctx, "order-1")
	if err == nil {
		t.Fatal("second advance must be rejected while the first is in flight")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CodeConflict, got %v", err)
	}

	close(fake.advanceGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first advance failed: %v", err)
	}

	fake.mu.Lock()
	calls := fake.advanceCalls
	fake.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly one PATCH, got %d", calls)
	}
}

func TestAdvanceFailureRollsBackMirror(t *testing.T) {
	fake := newFakeOrders()
	fake.orders["order-1"] = sampleOrder("order-1", "vendor-1", enums.OrderStatusInProgress, enums.OrderTypeDelivery)
	fake.delivery["vendor-1"] = []backend.Order{fake.orders["order-1"]}
	svc := newSyncService(t, fake, nil)

	ctx := context.Background()
	if err := svc.SyncVendors(ctx, []string{"vendor-1"}); err != nil {
		t.Fatalf("SyncVendors: %v", err)
	}

	fake.advanceErr = pkgerrors.New(pkgerrors.CodeDependency, "backend down")
	if _, err := svc.Advance(ctx, "order-1"); err == nil {
		t.Fatal("expected advance failure")
	}

	mirrored, err := svc.VendorOrders(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("VendorOrders: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0].Status != enums.OrderStatusInProgress {
		t.Fatalf("mirror must roll back to inProgress, got %+v", mirrored)
	}

	// the guard must be released so a retry can go through
	fake.advanceErr = nil
	if _, err := svc.Advance(ctx, "order-1"); err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}
}

func TestSyncUserSplitsActiveAndHistory(t *testing.T) {
	fake := newFakeOrders()
	fake.orders["order-1"] = sampleOrder("order-1", "vendor-1", enums.OrderStatusInProgress, enums.OrderTypeDineIn)
	fake.orders["order-2"] = sampleOrder("order-2", "vendor-1", enums.OrderStatusCompleted, enums.OrderTypeDineIn)
	svc := newSyncService(t, fake, nil)

	ctx := context.Background()
	active, err := svc.SyncUserActive(ctx, "user-1")
	if err != nil {
		t.Fatalf("SyncUserActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != "order-1" {
		t.Fatalf("unexpected active orders: %+v", active)
	}

	history, err := svc.SyncUserHistory(ctx, "user-1")
	if err != nil {
		t.Fatalf("SyncUserHistory: %v", err)
	}
	if len(history) != 1 || history[0].ID != "order-2" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestTerminalOrdersReachJournal(t *testing.T) {
	fake := newFakeOrders()
	fake.orders["order-2"] = sampleOrder("order-2", "vendor-1", enums.OrderStatusDelivered, enums.OrderTypeDelivery)
	recorder := &recordedOrders{}
	svc := newSyncService(t, fake, recorder)

	if _, err := svc.SyncUserHistory(context.Background(), "user-1"); err != nil {
		t.Fatalf("SyncUserHistory: %v", err)
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.orders) != 1 || recorder.orders[0].ID != "order-2" {
		t.Fatalf("journal missed the terminal order: %+v", recorder.orders)
	}
}

func TestTasksCarryConfiguredCadences(t *testing.T) {
	fake := newFakeOrders()
	svc := newSyncService(t, fake, nil)

	cfg := config.SyncConfig{
		ActiveInterval:  30 * time.Second,
		HistoryInterval: 60 * time.Second,
		VendorIDs:       []string{"vendor-1"},
	}
	tasks := Tasks(svc, cfg)
	if len(tasks) != 2 {
		t.Fatalf("expected two tasks, got %d", len(tasks))
	}
	if tasks[0].Interval() != 30*time.Second || tasks[1].Interval() != 60*time.Second {
		t.Fatalf("wrong cadences: %v / %v", tasks[0].Interval(), tasks[1].Interval())
	}
	if err := tasks[0].Run(context.Background()); err != nil {
		t.Fatalf("active task run: %v", err)
	}
}

type cachingRecorder struct {
	recordedOrders
}

func (r *cachingRecorder) VendorHistory(ctx context.Context, vendorID string, limit int) ([]backend.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []backend.Order
	for _, order := range r.orders {
		if order.VendorID == vendorID {
			out = append(out, order)
		}
	}
	return out, nil
}

func TestVendorOrdersColdMirrorFetchesLive(t *testing.T) {
	fake := newFakeOrders()
	fake.delivery["vendor-1"] = []backend.Order{
		sampleOrder("order-1", "vendor-1", enums.OrderStatusOnTheWay, enums.OrderTypeDelivery),
	}
	svc := newSyncService(t, fake, nil)

	ctx := context.Background()
	orders, err := svc.VendorOrders(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("VendorOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "order-1" {
		t.Fatalf("cold read must fetch live, got %+v", orders)
	}

	// the second read is served from the now-warm mirror
	if _, err := svc.VendorOrders(ctx, "vendor-1"); err != nil {
		t.Fatalf("warm VendorOrders: %v", err)
	}
	fake.mu.Lock()
	calls := fake.deliveryCalls
	fake.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one live fetch, got %d", calls)
	}
}

func TestVendorHistoryFallsBackToJournalCache(t *testing.T) {
	fake := newFakeOrders()
	fake.history["vendor-1"] = []backend.Order{
		sampleOrder("order-1", "vendor-1", enums.OrderStatusDelivered, enums.OrderTypeDelivery),
	}
	recorder := &cachingRecorder{}
	svc := newSyncService(t, fake, recorder)

	ctx := context.Background()
	orders, err := svc.VendorHistory(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("VendorHistory: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one terminal order, got %+v", orders)
	}

	fake.mu.Lock()
	fake.historyErr = pkgerrors.New(pkgerrors.CodeDependency, "backend down")
	fake.mu.Unlock()

	cached, err := svc.VendorHistory(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("VendorHistory with backend down: %v", err)
	}
	if len(cached) != 1 || cached[0].ID != "order-1" {
		t.Fatalf("journal cache must keep the view alive, got %+v", cached)
	}
}

func TestVendorHistoryWithoutCacheSurfacesBackendError(t *testing.T) {
	fake := newFakeOrders()
	fake.historyErr = pkgerrors.New(pkgerrors.CodeDependency, "backend down")
	svc := newSyncService(t, fake, nil)

	_, err := svc.VendorHistory(context.Background(), "vendor-1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected CodeDependency, got %v", err)
	}
}
