package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
)

// CartUpdate is what every cart read/mutation returns: the refreshed server
// record plus the server-supplied confirmation message. The returned cart is
// the only source of truth after a mutation — callers must not keep a locally
// patched copy.
type CartUpdate struct {
	Cart    *entity.Cart
	Message string
}

// OrderReceipt is the result of a successful order placement.
type OrderReceipt struct {
	Order   *entity.Order
	Message string
	// RedirectURL is the payment/confirmation destination supplied by the
	// server. Empty if the server did not request a redirect.
	RedirectURL string
}

// CartStore is the port to the remote cart store. Every call is a single
// remote round trip; the authoritative merge logic (increment-or-create on
// add, stock limits on increase) lives server-side.
type CartStore interface {
	FetchCart(ctx context.Context, email string) (*CartUpdate, error)
	AddItem(ctx context.Context, email, productID string) (*CartUpdate, error)
	IncreaseQuantity(ctx context.Context, email, productID string) (*CartUpdate, error)
	DecreaseQuantity(ctx context.Context, email, productID string) (*CartUpdate, error)
	RemoveItem(ctx context.Context, email, productID string) (*CartUpdate, error)
	// ClearCart empties the cart. Clearing an already-empty cart is a no-op,
	// not an error.
	ClearCart(ctx context.Context, email string) (*CartUpdate, error)
}

// OrderGateway is the port to the remote order store.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, items []entity.OrderItem) (*OrderReceipt, error)
	VerifyOrder(ctx context.Context, orderID string) (*entity.Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]entity.Order, error)
}

// RemoteError carries the server-supplied message extracted from an error
// response body, so the UI can surface it verbatim.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote store: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("remote store: status %d", e.StatusCode)
}

// UserMessage returns the server-supplied message from err when err is (or
// wraps) a RemoteError with one, otherwise the given fallback.
func UserMessage(err error, fallback string) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
