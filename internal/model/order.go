// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// Order statuses as reported by the backend.
const (
	OrderStatusPending         = "pending"
	OrderStatusPaid            = "paid"
	OrderStatusFree            = "free"
	OrderStatusAlreadyAccessed = "already_accessed"
)

// ProductRef is a reference to a product inside an order. The backend
// serializes it either as a bare id string or as a populated object,
// depending on whether the query joined the product.
type ProductRef struct {
	ID      string `json:"_id"`
	Title   string `json:"title,omitempty"`
	FileURL string `json:"fileUrl,omitempty"`
}

// UnmarshalJSON accepts both the bare-id and the populated form.
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		return nil
	}

	type ref ProductRef
	var populated ref
	if err := json.Unmarshal(data, &populated); err != nil {
		return err
	}
	*r = ProductRef(populated)
	return nil
}

// MarshalJSON always emits the populated form.
func (r ProductRef) MarshalJSON() ([]byte, error) {
	type ref ProductRef
	return json.Marshal(ref(r))
}

// Order represents a completed or pending order record. Orders are
// created by the checkout flow and never mutated or deleted client-side.
type Order struct {
	ID             string     `json:"_id"`
	Product        ProductRef `json:"productId"`
	UserEmail      string     `json:"userEmail,omitempty"`
	Amount         float64    `json:"amount"`
	Status         string     `json:"status"`
	DownloadAccess bool       `json:"downloadAccess"`
	ReceiptURL     string     `json:"receiptUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Granted reports whether the order confers access to the product.
func (o *Order) Granted() bool {
	switch o.Status {
	case OrderStatusPaid, OrderStatusFree, OrderStatusAlreadyAccessed:
		return true
	}
	return false
}

// Analytics is the admin dashboard's order summary.
type Analytics struct {
	TotalOrders      int64 `json:"totalOrders"`
	TotalEnrollments int64 `json:"totalEnrollments"`
}
