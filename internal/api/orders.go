// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/olegiv/storefront-go/internal/model"
)

// ListOrders fetches the caller's orders. The backend scopes the list
// by role: a student sees their own orders, an admin sees all of them.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// OrderAnalytics fetches the admin order summary.
func (c *Client) OrderAnalytics(ctx context.Context) (model.Analytics, error) {
	var analytics model.Analytics
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders/analytics", nil, &analytics); err != nil {
		return model.Analytics{}, err
	}
	return analytics, nil
}
