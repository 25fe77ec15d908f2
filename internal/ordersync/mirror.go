package ordersync

import (
	"sort"
	"sync"

	"github.com/kampyn/ordering-gateway/pkg/backend"
)

// mirror is the local read-only projection of backend orders. It is only
// written by sync adoption and optimistic advances; nothing in the
// gateway treats it as authoritative.
type mirror struct {
	mu       sync.RWMutex
	orders   map[string]backend.Order
	updating map[string]bool
	vendors  map[string]bool
}

func newMirror() *mirror {
	return &mirror{
		orders:   make(map[string]backend.Order),
		updating: make(map[string]bool),
		vendors:  make(map[string]bool),
	}
}

// adoptVendor replaces every mirrored order for the vendor with the
// server's list. Orders mid-advance keep their optimistic state until the
// PATCH settles.
func (m *mirror) adoptVendor(vendorID string, orders []backend.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vendors[vendorID] = true
	for id, order := range m.orders {
		if order.VendorID == vendorID && !m.updating[id] {
			delete(m.orders, id)
		}
	}
	for _, order := range orders {
		if m.updating[order.ID] {
			continue
		}
		m.orders[order.ID] = order
	}
}

func (m *mirror) adopt(order backend.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *mirror) get(orderID string) (backend.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[orderID]
	return order, ok
}

// beginUpdate marks the order as mid-advance, applying the optimistic
// status. Returns false without touching anything when an advance is
// already in flight for this order.
func (m *mirror) beginUpdate(orderID string, optimistic backend.Order) (backend.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updating[orderID] {
		return backend.Order{}, false
	}
	previous := m.orders[orderID]
	m.updating[orderID] = true
	m.orders[orderID] = optimistic
	return previous, true
}

// settleUpdate clears the in-flight flag, adopting the server's order on
// success or restoring the pre-advance snapshot on failure.
func (m *mirror) settleUpdate(orderID string, settled backend.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.updating, orderID)
	m.orders[orderID] = settled
}

// hasVendor reports whether the vendor's list has ever been adopted;
// byVendor returning nothing for an unseen vendor means cold, not empty.
func (m *mirror) hasVendor(vendorID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vendors[vendorID]
}

func (m *mirror) byVendor(vendorID string) []backend.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []backend.Order
	for _, order := range m.orders {
		if order.VendorID == vendorID {
			out = append(out, order)
		}
	}
	sortOrders(out)
	return out
}

func (m *mirror) byUser(userID string, terminal bool) []backend.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []backend.Order
	for _, order := range m.orders {
		if order.UserID == userID && order.Status.IsTerminal() == terminal {
			out = append(out, order)
		}
	}
	sortOrders(out)
	return out
}

func sortOrders(orders []backend.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
