// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/olegiv/storefront-go/internal/model"
)

// CreateOrderResult is the backend's answer to an order-creation call.
// Status is "free" or "already_accessed" for a granted free product, or
// "pending" with a provider order id to hand to the payment widget.
type CreateOrderResult struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

// Granted reports whether the result already confers access, with no
// payment step needed.
func (r CreateOrderResult) Granted() bool {
	return r.Status == model.OrderStatusFree || r.Status == model.OrderStatusAlreadyAccessed
}

// CreateOrder starts order acquisition for a product. The bearer token
// is attached when present; anonymous buyers are identified by email.
func (c *Client) CreateOrder(ctx context.Context, productID, email string) (CreateOrderResult, error) {
	if productID == "" {
		return CreateOrderResult{}, fmt.Errorf("%w: product id is required", model.ErrValidation)
	}

	var result CreateOrderResult
	err := c.doJSON(ctx, http.MethodPost, "/api/payments/create-order", map[string]string{
		"productId": productID,
		"email":     email,
	}, &result)
	if err != nil {
		return CreateOrderResult{}, err
	}
	return result, nil
}

// CaptureOrder finalizes a provider-approved payment. This is the second
// of two independent round-trips: by the time it runs the provider may
// already have moved money, so callers must treat its failure as a
// reconciliation gap, not a clean error.
func (c *Client) CaptureOrder(ctx context.Context, orderID, productID, email string) (model.Order, error) {
	if orderID == "" || productID == "" {
		return model.Order{}, fmt.Errorf("%w: orderID and productId are required", model.ErrValidation)
	}

	var order model.Order
	err := c.doJSON(ctx, http.MethodPost, "/api/payments/capture-order", map[string]string{
		"orderID":   orderID,
		"productId": productID,
		"email":     email,
	}, &order)
	if err != nil {
		return model.Order{}, err
	}
	return order, nil
}
