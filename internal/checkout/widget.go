// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package checkout

import "context"

// ApprovalResult is the payment widget's verdict on a provider order.
type ApprovalResult int

const (
	// ApprovalApproved means the buyer authorized the charge and the
	// order is ready for capture.
	ApprovalApproved ApprovalResult = iota
	// ApprovalCancelled means the buyer backed out before approving.
	ApprovalCancelled
	// ApprovalError means the widget failed before approval.
	ApprovalError
)

// String implements fmt.Stringer for logs.
func (r ApprovalResult) String() string {
	switch r {
	case ApprovalApproved:
		return "approved"
	case ApprovalCancelled:
		return "cancelled"
	case ApprovalError:
		return "error"
	}
	return "unknown"
}

// PaymentWidget is the opaque payment-provider approval step. The flow
// hands it a provider order id and gets back exactly one verdict. What
// happens inside (hosted page, embedded frame, terminal prompt) is the
// widget's business; the flow only reacts to the verdict.
//
// A returned error is treated like ApprovalError: the attempt settles
// with a provider-error outcome and no capture is issued.
type PaymentWidget interface {
	Approve(ctx context.Context, providerOrderID string) (ApprovalResult, error)
}

// WidgetFunc adapts a function to the PaymentWidget interface.
type WidgetFunc func(ctx context.Context, providerOrderID string) (ApprovalResult, error)

// Approve implements PaymentWidget.
func (f WidgetFunc) Approve(ctx context.Context, providerOrderID string) (ApprovalResult, error) {
	return f(ctx, providerOrderID)
}

// AutoApprove is a widget that approves every order without buyer
// interaction. Intended for scripted flows against test backends.
func AutoApprove() PaymentWidget {
	return WidgetFunc(func(context.Context, string) (ApprovalResult, error) {
		return ApprovalApproved, nil
	})
}
