// Package cart implements the cart controller: it presents the authoritative
// cart for the signed-in user and applies mutations to it, keeping the view
// consistent with server state after every mutation.
//
// Every mutation follows the same contract: issue one remote request → on
// success, emit the server-supplied message and adopt the server-returned
// cart → on failure, emit the normalized error message → in all cases release
// the per-item busy slot. There is no optimistic local mutation: the record
// returned by the remote store is the only truth.
package cart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

var (
	// ErrNotSignedIn is returned when a cart action is attempted with no
	// signed-in user. Checked before any request is sent.
	ErrNotSignedIn = errors.New("please log in to use the cart")

	// ErrQuantityFloor is returned when decrease is attempted at quantity 1.
	// Dropping a line to zero must be expressed as remove, not decrease.
	ErrQuantityFloor = errors.New("quantity cannot go below 1")
)

// Controller orchestrates reads and mutations of the remote cart.
type Controller struct {
	store    ports.CartStore
	notifier ports.Notifier
	pending  *pendingOps

	// views holds the last server-returned cart per user. It exists only to
	// evaluate UI guards (decrease disabled at quantity 1) against what the
	// user currently sees; it is never served as cart state.
	views *viewCache
}

func NewController(store ports.CartStore, notifier ports.Notifier) *Controller {
	return &Controller{
		store:    store,
		notifier: notifier,
		pending:  newPendingOps(),
		views:    newViewCache(),
	}
}

// FetchCart loads the user's cart from the remote store. On failure the prior
// view is discarded rather than silently kept, so a stale cart is never
// displayed as current.
func (c *Controller) FetchCart(ctx context.Context, email string) (*entity.Cart, error) {
	if email == "" {
		return nil, ErrNotSignedIn
	}

	upd, err := c.store.FetchCart(ctx, email)
	if err != nil {
		c.views.drop(email)
		return nil, err
	}

	c.views.put(email, upd.Cart)
	return upd.Cart, nil
}

// AddItem adds a product to the cart, or increments it if already present
// (the merge is authoritative server-side). Blocked entirely when no user is
// signed in: the guard runs before any request is issued.
func (c *Controller) AddItem(ctx context.Context, email, productID string) (*entity.Cart, error) {
	if email == "" {
		c.notifier.Error(ctx, ErrNotSignedIn.Error())
		return nil, ErrNotSignedIn
	}

	return c.mutate(ctx, email, productID, OpAdd, "Failed to add item to cart", func(ctx context.Context) (*ports.CartUpdate, error) {
		return c.store.AddItem(ctx, email, productID)
	})
}

// IncreaseQuantity increments the line quantity. No client-side upper bound:
// the server is authoritative on stock limits.
func (c *Controller) IncreaseQuantity(ctx context.Context, email, productID string) (*entity.Cart, error) {
	if email == "" {
		c.notifier.Error(ctx, ErrNotSignedIn.Error())
		return nil, ErrNotSignedIn
	}

	return c.mutate(ctx, email, productID, OpIncrease, "Failed to increase quantity", func(ctx context.Context) (*ports.CartUpdate, error) {
		return c.store.IncreaseQuantity(ctx, email, productID)
	})
}

// DecreaseQuantity decrements the line quantity. Guarded at quantity 1: no
// request is issued and the displayed quantity does not change.
func (c *Controller) DecreaseQuantity(ctx context.Context, email, productID string) (*entity.Cart, error) {
	if email == "" {
		c.notifier.Error(ctx, ErrNotSignedIn.Error())
		return nil, ErrNotSignedIn
	}

	if view, ok := c.views.get(email); ok {
		if item, found := view.Item(productID); found && item.Quantity <= 1 {
			c.notifier.Error(ctx, ErrQuantityFloor.Error())
			return nil, ErrQuantityFloor
		}
	}

	return c.mutate(ctx, email, productID, OpDecrease, "Failed to decrease quantity", func(ctx context.Context) (*ports.CartUpdate, error) {
		return c.store.DecreaseQuantity(ctx, email, productID)
	})
}

// RemoveItem removes the line from the cart. While pending, only that item's
// busy slot is held, so removing one item never blocks mutating another.
func (c *Controller) RemoveItem(ctx context.Context, email, productID string) (*entity.Cart, error) {
	if email == "" {
		c.notifier.Error(ctx, ErrNotSignedIn.Error())
		return nil, ErrNotSignedIn
	}

	return c.mutate(ctx, email, productID, OpRemove, "Failed to remove item", func(ctx context.Context) (*ports.CartUpdate, error) {
		return c.store.RemoveItem(ctx, email, productID)
	})
}

// ClearCart empties the cart. Idempotent: clearing an already-empty cart is a
// no-op at the store, not an error. Used by the checkout flow right after a
// successful order placement.
func (c *Controller) ClearCart(ctx context.Context, email string) (*entity.Cart, error) {
	if email == "" {
		return nil, ErrNotSignedIn
	}

	return c.mutate(ctx, email, "", OpClear, "Failed to clear cart", func(ctx context.Context) (*ports.CartUpdate, error) {
		return c.store.ClearCart(ctx, email)
	})
}

// Pending returns the in-flight operations for the user, keyed by product ID
// (the whole-cart slot under the empty key), so the UI can render per-item
// busy indicators.
func (c *Controller) Pending(email string) map[string]Operation {
	return c.pending.snapshot(email)
}

// mutate applies the shared mutation contract around one remote call.
func (c *Controller) mutate(
	ctx context.Context,
	email, productID string,
	op Operation,
	fallback string,
	call func(ctx context.Context) (*ports.CartUpdate, error),
) (*entity.Cart, error) {
	if err := c.pending.begin(email, productID, op); err != nil {
		c.notifier.Error(ctx, err.Error())
		return nil, err
	}
	// The busy slot is released on every path, including panics, so a failed
	// mutation can never leave an indicator stuck.
	defer c.pending.end(email, productID)

	upd, err := call(ctx)
	if err != nil {
		slog.WarnContext(ctx, "cart mutation failed",
			"operation", string(op),
			"product_id", productID,
			"error", err,
		)
		c.notifier.Error(ctx, ports.UserMessage(err, fallback))
		return nil, err
	}

	c.notifier.Success(ctx, upd.Message)
	c.views.put(email, upd.Cart)
	return upd.Cart, nil
}
