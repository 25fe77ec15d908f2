package backend

import (
	"time"

	"github.com/kampyn/ordering-gateway/pkg/enums"
)

// CartLine is one entry in a user's server-side cart, unique per
// (ItemID, Kind).
type CartLine struct {
	ItemID   string         `json:"itemId"`
	Name     string         `json:"name"`
	Price    int64          `json:"price"`
	Quantity int            `json:"quantity"`
	Kind     enums.ItemKind `json:"kind"`
	VendorID string         `json:"vendorId,omitempty"`
	ImageURL string         `json:"image,omitempty"`
}

// VendorCharges carries the per-vendor charge schedule the backend
// exposes alongside a cart.
type VendorCharges struct {
	PackingCharge  int64 `json:"packingCharge"`
	DeliveryCharge int64 `json:"deliveryCharge"`
}

// Cart is the authoritative cart snapshot for one user at one vendor.
type Cart struct {
	UserID   string        `json:"userId"`
	VendorID string        `json:"vendorId"`
	Items    []CartLine    `json:"cart"`
	Charges  VendorCharges `json:"charges"`
}

// Order mirrors the backend's order resource.
type Order struct {
	ID             string            `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	UserID         string            `json:"userId"`
	VendorID       string            `json:"vendorId"`
	Status         enums.OrderStatus `json:"status"`
	OrderType      enums.OrderType   `json:"orderType"`
	Items          []CartLine        `json:"items"`
	Total          int64             `json:"total"`
	CollectorName  string            `json:"collectorName,omitempty"`
	CollectorPhone string            `json:"collectorPhone,omitempty"`
	Address        string            `json:"address,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// PaymentOrder is the provider-side order minted before the user is
// handed to the payment widget. Amount is in minor units (paise).
type PaymentOrder struct {
	ProviderOrderID string `json:"razorpayOrderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	OrderID         string `json:"orderId"`
}

// VerifiedOrder is the result of a successful signature verification.
type VerifiedOrder struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// College is one campus in the platform directory.
type College struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"isActive"`
}

// Vendor is one food vendor attached to a college.
type Vendor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CollegeID string `json:"collegeId"`
	IsOpen    bool   `json:"isOpen"`
}

// FavoriteItem is one favourited menu item.
type FavoriteItem struct {
	ItemID   string         `json:"itemId"`
	Name     string         `json:"name"`
	Price    int64          `json:"price"`
	Kind     enums.ItemKind `json:"kind"`
	VendorID string         `json:"vendorId"`
	ImageURL string         `json:"image,omitempty"`
}

// Invoice is the backend's invoice listing row.
type Invoice struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	VendorID    string    `json:"vendorId"`
	Total       int64     `json:"total"`
	PDFURL      string    `json:"pdfUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RateLimitRule is one admin-visible rate limit entry.
type RateLimitRule struct {
	Key       string    `json:"key"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
	Blocked   bool      `json:"blocked"`
}
