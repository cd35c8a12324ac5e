// Package checkout converts the current cart into an order and drives the
// post-checkout transition.
//
// Each attempt is a small state machine: Idle → Submitting → Succeeded or
// Failed. A failed attempt is terminal — there is no automatic retry, and the
// cart is left untouched so the user can re-trigger checkout without
// re-adding items.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phonehub/storefront/internal/checkout/attemptlog"
	"github.com/phonehub/storefront/internal/pkg/cache"
	"github.com/phonehub/storefront/internal/pkg/requestmeta"
	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

// ErrEmptyCart is returned when checkout is attempted with zero items.
// Caught client-side; no request reaches the network.
var ErrEmptyCart = errors.New("Your cart is empty.")

// failureMessage is the generic notification for a rejected order submission.
const failureMessage = "Failed to place order. Please try again."

// CartClearer is the slice of the cart controller the flow needs for the
// post-order cleanup.
type CartClearer interface {
	ClearCart(ctx context.Context, email string) (*entity.Cart, error)
}

// Result is the outcome of a successful checkout attempt.
type Result struct {
	Order   *entity.Order
	Message string

	// RedirectURL is the payment/confirmation destination the browser should
	// navigate to. By the time Checkout returns, the best-effort cart clear
	// has already been issued, so navigating immediately is safe.
	RedirectURL string

	// Replayed is true when an idempotency key matched a previous attempt
	// and no new order was placed.
	Replayed bool
}

// Flow orchestrates checkout attempts.
type Flow struct {
	orders   ports.OrderGateway
	carts    CartClearer
	notifier ports.Notifier

	// attempts may be nil — transitions are then not persisted.
	attempts attemptlog.Repository

	// idem may be nil — idempotency keys are then ignored.
	idem    cache.Cache
	idemTTL time.Duration

	// clearBudget bounds the best-effort cart clear. The clear request is
	// issued before the redirect target is handed back, but it must not hold
	// the success path hostage if the store is slow.
	clearBudget time.Duration
}

// Option configures a Flow.
type Option func(*Flow)

// WithAttemptLog persists every state transition to the given repository.
func WithAttemptLog(repo attemptlog.Repository) Option {
	return func(f *Flow) { f.attempts = repo }
}

// WithIdempotency deduplicates attempts that present the same idempotency
// key within ttl: the replay returns the original order reference instead of
// placing a second order.
func WithIdempotency(c cache.Cache, ttl time.Duration) Option {
	return func(f *Flow) {
		f.idem = c
		f.idemTTL = ttl
	}
}

// WithClearBudget overrides the default 1s budget for the post-order clear.
func WithClearBudget(d time.Duration) Option {
	return func(f *Flow) { f.clearBudget = d }
}

func NewFlow(orders ports.OrderGateway, carts CartClearer, notifier ports.Notifier, opts ...Option) *Flow {
	f := &Flow{
		orders:      orders,
		carts:       carts,
		notifier:    notifier,
		clearBudget: time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Checkout runs one attempt against the given cart snapshot.
//
// Sequence on success: place order → success notification with the server
// message → (if a redirect target is present) best-effort bounded cart clear
// → return the redirect target. The clear is issued strictly before the
// caller can navigate, but its completion is not guaranteed and its failure
// never fails the attempt.
func (f *Flow) Checkout(ctx context.Context, email string, snapshot *entity.Cart) (*Result, error) {
	if snapshot == nil || snapshot.IsEmpty() {
		f.notifier.Error(ctx, ErrEmptyCart.Error())
		return nil, ErrEmptyCart
	}

	if res, ok := f.replay(ctx); ok {
		return res, nil
	}

	items := entity.OrderSnapshot(*snapshot)
	attemptID := uuid.NewString()
	ctx = requestmeta.WithUserEmail(ctx, email)

	f.record(ctx, attemptID, email, "", attemptlog.StatusSubmitting, "submit", marshalItems(items), "")

	receipt, err := f.orders.PlaceOrder(ctx, items)
	if err != nil {
		f.record(ctx, attemptID, email, "", attemptlog.StatusFailed, "place_order", "", err.Error())
		f.notifier.Error(ctx, failureMessage)
		return nil, err
	}

	// Some payment integrations return only a redirect target, no order
	// record. The order id is then unknown to the client.
	orderID := ""
	if receipt.Order != nil {
		orderID = receipt.Order.ID
	}

	f.record(ctx, attemptID, email, orderID, attemptlog.StatusStepDone, "place_order", "", "")
	f.notifier.Success(ctx, receipt.Message)
	if orderID != "" {
		f.remember(ctx, orderID)
	}

	if receipt.RedirectURL != "" {
		f.clearBestEffort(ctx, attemptID, email, orderID)
	}

	f.record(ctx, attemptID, email, orderID, attemptlog.StatusSucceeded, "", "", "")

	return &Result{
		Order:       receipt.Order,
		Message:     receipt.Message,
		RedirectURL: receipt.RedirectURL,
	}, nil
}

// replay checks the idempotency key carried in ctx. When the key was already
// used, the stored order is fetched and returned instead of placing a new one.
func (f *Flow) replay(ctx context.Context) (*Result, bool) {
	if f.idem == nil {
		return nil, false
	}
	key := requestmeta.IdempotencyKey(ctx)
	if key == "" {
		return nil, false
	}

	orderID, err := f.idem.Get(ctx, f.idem.GenerateKey("checkout", key))
	if err != nil {
		// The dedup store being down must not block checkout.
		slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		return nil, false
	}
	if orderID == "" {
		return nil, false
	}

	order, err := f.orders.VerifyOrder(ctx, orderID)
	if err != nil {
		slog.WarnContext(ctx, "idempotent replay verify failed", "order_id", orderID, "error", err)
		return nil, false
	}

	return &Result{
		Order:    order,
		Message:  "Order already placed",
		Replayed: true,
	}, true
}

// remember stores the order under the attempt's idempotency key, if any.
// SETNX, not SET: when two concurrent attempts race past replay with the same
// key, the first writer wins and the key keeps pointing at one order.
func (f *Flow) remember(ctx context.Context, orderID string) {
	if f.idem == nil {
		return
	}
	key := requestmeta.IdempotencyKey(ctx)
	if key == "" {
		return
	}
	stored, err := f.idem.SetIfAbsent(ctx, f.idem.GenerateKey("checkout", key), orderID, f.idemTTL)
	if err != nil {
		slog.WarnContext(ctx, "idempotency store failed", "order_id", orderID, "error", err)
		return
	}
	if !stored {
		slog.WarnContext(ctx, "idempotency key already claimed by a concurrent attempt", "order_id", orderID)
	}
}

// clearBestEffort empties the cart after a successful placement. Detached
// from the request's cancellation and bounded by clearBudget: a slow or
// failing clear is logged, never surfaced.
func (f *Flow) clearBestEffort(ctx context.Context, attemptID, email, orderID string) {
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.clearBudget)
	defer cancel()

	if _, err := f.carts.ClearCart(clearCtx, email); err != nil {
		slog.WarnContext(ctx, "post-order cart clear failed", "order_id", orderID, "error", err)
		f.record(ctx, attemptID, email, orderID, attemptlog.StatusStepDone, "clear_cart", "", err.Error())
		return
	}
	f.record(ctx, attemptID, email, orderID, attemptlog.StatusStepDone, "clear_cart", "", "")
}

// record writes one attempt-log transition. nil-safe: skipped without a
// repository, and a failing log write never affects the attempt.
func (f *Flow) record(ctx context.Context, attemptID, email, orderID string, status attemptlog.Status, step, payload, errMsg string) {
	if f.attempts == nil {
		return
	}
	entry := attemptlog.NewEntry(ctx, attemptID, email, status, step, payload, errMsg)
	entry.OrderID = orderID
	if err := f.attempts.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "attempt log write failed", "attempt_id", attemptID, "error", err)
	}
}

func marshalItems(items []entity.OrderItem) string {
	b, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(b)
}
