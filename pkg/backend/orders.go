package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

// ActiveOrders lists a user's non-terminal orders.
func (c *Client) ActiveOrders(ctx context.Context, userID string) ([]Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, "/order/active/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// PastOrders lists a user's terminal orders, newest first.
func (c *Client) PastOrders(ctx context.Context, userID string) ([]Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, "/order/past/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// DeliveryOrders lists orders currently out for delivery for a vendor.
func (c *Client) DeliveryOrders(ctx context.Context, vendorID string) ([]Order, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, "/order/delivery/"+url.PathEscape(vendorID), nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// VendorOrderHistory lists a vendor's settled orders, newest first.
func (c *Client) VendorOrderHistory(ctx context.Context, vendorID string) ([]Order, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, "/order/history/"+url.PathEscape(vendorID), nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	var out struct {
		Order Order `json:"order"`
	}
	if err := c.get(ctx, "/order/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// AdvanceOrder moves an order one step along the server-driven lifecycle.
// The backend owns the transition table; the gateway only relays.
func (c *Client) AdvanceOrder(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	var out struct {
		Order Order `json:"order"`
	}
	if err := c.patch(ctx, fmt.Sprintf("/order/%s/deliver", url.PathEscape(orderID)), nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}
