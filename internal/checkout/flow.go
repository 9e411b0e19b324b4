// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package checkout drives order acquisition: turning a catalog item
// selection into either free-tier access or a paid transaction. The
// payment provider's create/approve/cancel/error callbacks all thread
// through one Attempt record, so a capture failure after approval is
// distinguishable from an outright creation failure.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/storefront-go/internal/api"
	"github.com/olegiv/storefront-go/internal/cache"
	"github.com/olegiv/storefront-go/internal/model"
)

// State of an acquisition attempt.
type State string

// Attempt states. Cancelled and SettledError are re-enterable: the user
// can start a fresh attempt without reloading. ReconciliationGap is not,
// since retrying a possibly-charged payment risks a double charge.
const (
	StateIdle              State = "idle"
	StateFreeGranting      State = "free_granting"
	StatePaidPending       State = "paid_pending"
	StateApproved          State = "approved"
	StateSettledSuccess    State = "settled_success"
	StateSettledError      State = "settled_error"
	StateReconciliationGap State = "reconciliation_gap"
	StateCancelled         State = "cancelled"
)

// User-facing messages for terminal states.
const (
	MsgGranted           = "Access granted! Check your dashboard."
	MsgPurchaseComplete  = "Payment successful! Check your dashboard for download."
	MsgCancelled         = "Payment cancelled"
	MsgProviderError     = "The payment provider reported an error"
	MsgCreateFailed      = "Could not start payment"
	MsgReconciliationGap = "Payment may have succeeded but could not be confirmed. Contact support before retrying."
	MsgFreeProductFailed = "Error processing free product"
)

// Attempt is the single mutable record threaded through an acquisition.
type Attempt struct {
	ID      string
	Product model.Product
	Email   string
	State   State

	// ProviderOrderID is set on the paid path once creation succeeds.
	ProviderOrderID string

	// GrantStatus is the backend's status on a granted outcome
	// ("free", "already_accessed" or "paid").
	GrantStatus string

	// Order is the captured order on a successful paid settlement.
	Order *model.Order

	// Err and Message describe a failed or cancelled outcome. Message
	// is safe to surface to the user.
	Err     error
	Message string

	StartedAt time.Time
	SettledAt time.Time
}

// Granted reports whether the attempt ended with access conferred.
func (a *Attempt) Granted() bool {
	return a.State == StateSettledSuccess
}

// ReEnterable reports whether a fresh attempt may be started for the
// same product without operator involvement.
func (a *Attempt) ReEnterable() bool {
	return a.State == StateCancelled || a.State == StateSettledError
}

// Flow coordinates the backend client, the payment widget and the list
// cache through an acquisition.
type Flow struct {
	client *api.Client
	lists  *cache.Lists
	widget PaymentWidget
	logger *slog.Logger
	now    func() time.Time
}

// New creates a checkout flow. The widget may be nil if only free
// products are acquired.
func New(client *api.Client, lists *cache.Lists, widget PaymentWidget, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		client: client,
		lists:  lists,
		widget: widget,
		logger: logger,
		now:    time.Now,
	}
}

// Acquire runs a full acquisition for the product. The email is
// required on both paths; a validation failure returns a nil attempt
// and an error wrapping model.ErrValidation with no network call made.
// All later outcomes are recorded on the returned attempt.
func (f *Flow) Acquire(ctx context.Context, product model.Product, email string) (*Attempt, error) {
	if err := model.ValidateEmail(email); err != nil {
		return nil, err
	}

	attempt := &Attempt{
		ID:        uuid.NewString(),
		Product:   product,
		Email:     email,
		State:     StateIdle,
		StartedAt: f.now(),
	}

	if product.IsFree() {
		f.acquireFree(ctx, attempt)
	} else {
		f.acquirePaid(ctx, attempt)
	}
	return attempt, nil
}

// acquireFree requests a free-tier grant. The server is authoritative
// and idempotent: "free" and "already_accessed" both mean granted, and
// the attempt re-renders from the server's answer every time rather
// than assuming a repeat call is a local no-op.
func (f *Flow) acquireFree(ctx context.Context, attempt *Attempt) {
	attempt.State = StateFreeGranting

	result, err := f.client.CreateOrder(ctx, attempt.Product.ID, attempt.Email)
	if err != nil {
		f.settleError(ctx, attempt, err, MsgFreeProductFailed)
		return
	}
	if !result.Granted() {
		f.settleError(ctx, attempt, errors.New("unexpected status "+result.Status), MsgFreeProductFailed)
		return
	}

	f.settleGranted(ctx, attempt, result.Status)

	// First grants count toward enrollment analytics; repeat access does not.
	if result.Status == model.OrderStatusFree {
		f.logger.Info("free access granted",
			"category", "checkout", "product_id", attempt.Product.ID, "attempt_id", attempt.ID)
	} else {
		f.logger.Debug("free access repeated",
			"category", "checkout", "product_id", attempt.Product.ID, "attempt_id", attempt.ID)
	}
}

// acquirePaid runs the create/approve/capture handshake with the
// payment widget.
func (f *Flow) acquirePaid(ctx context.Context, attempt *Attempt) {
	result, err := f.client.CreateOrder(ctx, attempt.Product.ID, attempt.Email)
	if err != nil {
		f.settleError(ctx, attempt, err, MsgCreateFailed)
		return
	}

	// Defensive: a product the catalog thought was paid may be
	// free-tier server-side. Granted means granted; the widget is
	// never invoked for this attempt.
	if result.Granted() {
		f.settleGranted(ctx, attempt, result.Status)
		return
	}

	if result.ID == "" {
		f.settleError(ctx, attempt, errors.New("creation returned no provider order id"), MsgCreateFailed)
		return
	}

	attempt.State = StatePaidPending
	attempt.ProviderOrderID = result.ID

	if f.widget == nil {
		f.settleError(ctx, attempt, errors.New("no payment widget configured"), MsgCreateFailed)
		return
	}

	approval, err := f.widget.Approve(ctx, result.ID)
	if err != nil {
		f.settleError(ctx, attempt, err, MsgProviderError)
		return
	}

	switch approval {
	case ApprovalCancelled:
		// Buyer-initiated, before any money moved. Not an error; a
		// fresh attempt can be started immediately.
		attempt.State = StateCancelled
		attempt.Message = MsgCancelled
		attempt.SettledAt = f.now()
		return
	case ApprovalError:
		f.settleError(ctx, attempt, errors.New("payment widget reported an error"), MsgProviderError)
		return
	case ApprovalApproved:
	default:
		f.settleError(ctx, attempt, errors.New("unknown approval result"), MsgProviderError)
		return
	}

	attempt.State = StateApproved
	f.capture(ctx, attempt)
}

// capture finalizes an approved payment. By now the provider has
// authorized the charge, so a failure here is a reconciliation gap: the
// provider's ledger and the local order record may disagree.
func (f *Flow) capture(ctx context.Context, attempt *Attempt) {
	order, err := f.client.CaptureOrder(ctx, attempt.ProviderOrderID, attempt.Product.ID, attempt.Email)
	if err != nil {
		attempt.State = StateReconciliationGap
		attempt.Err = err
		attempt.Message = MsgReconciliationGap
		attempt.SettledAt = f.now()

		f.logger.Warn("capture failed after provider approval",
			"category", "checkout",
			"attempt_id", attempt.ID,
			"provider_order_id", attempt.ProviderOrderID,
			"product_id", attempt.Product.ID,
			"error", err)
		return
	}

	attempt.Order = &order
	f.settleGranted(ctx, attempt, order.Status)
	attempt.Message = MsgPurchaseComplete
}

// settleGranted marks the attempt successful and evicts the cached
// order views so the next dashboard read reflects the new order.
func (f *Flow) settleGranted(ctx context.Context, attempt *Attempt, status string) {
	attempt.State = StateSettledSuccess
	attempt.GrantStatus = status
	attempt.Message = MsgGranted
	attempt.SettledAt = f.now()

	if f.lists != nil {
		f.lists.InvalidateOrders(ctx)
	}
}

// settleError records a failed outcome. Nothing is swallowed: the
// attempt carries both the cause and a user-safe message, and the flow
// is back in a retryable state.
func (f *Flow) settleError(_ context.Context, attempt *Attempt, err error, msg string) {
	attempt.State = StateSettledError
	attempt.Err = err
	attempt.Message = msg
	attempt.SettledAt = f.now()

	f.logger.Warn("acquisition failed",
		"category", "checkout",
		"attempt_id", attempt.ID,
		"product_id", attempt.Product.ID,
		"error", err)
}
