package backend

import (
	"context"
	"net/url"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

// Colleges lists every campus on the platform.
func (c *Client) Colleges(ctx context.Context) ([]College, error) {
	var out struct {
		Colleges []College `json:"colleges"`
	}
	if err := c.get(ctx, "/api/user/auth/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Colleges, nil
}

// Vendors lists the vendors attached to a college.
func (c *Client) Vendors(ctx context.Context, collegeID string) ([]Vendor, error) {
	if strings.TrimSpace(collegeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collegeId is required")
	}
	var out struct {
		Vendors []Vendor `json:"vendors"`
	}
	if err := c.get(ctx, "/api/college/"+url.PathEscape(collegeID)+"/vendors", nil, &out); err != nil {
		return nil, err
	}
	return out.Vendors, nil
}
