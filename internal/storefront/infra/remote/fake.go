package remote

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/phonehub/storefront/internal/pkg/requestmeta"
	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

// Ensure FakeStore implements both ports at compile time.
var (
	_ ports.CartStore    = (*FakeStore)(nil)
	_ ports.OrderGateway = (*FakeStore)(nil)
)

// FakeStore is an in-memory implementation of the remote store intended for
// local development and tests only. It reproduces the authoritative merge
// rules of the real store: add is increment-or-create, decrease floors at 1,
// clear is idempotent.
type FakeStore struct {
	mu       sync.Mutex
	products map[string]entity.Product
	carts    map[string][]entity.CartItem
	orders   map[string]*entity.Order

	// RedirectURL, when set, is returned by PlaceOrder as the payment target.
	RedirectURL string
}

func NewFakeStore(products ...entity.Product) *FakeStore {
	f := &FakeStore{
		products: make(map[string]entity.Product),
		carts:    make(map[string][]entity.CartItem),
		orders:   make(map[string]*entity.Order),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *FakeStore) FetchCart(ctx context.Context, email string) (*ports.CartUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.update(email, "Cart fetched"), nil
}

func (f *FakeStore) AddItem(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[productID]
	if !ok {
		return nil, &ports.RemoteError{StatusCode: http.StatusNotFound, Message: "Product does not exist"}
	}

	items := f.carts[email]
	for i := range items {
		if items[i].Product.ID == productID {
			items[i].Quantity++
			return f.update(email, "Product added to cart"), nil
		}
	}
	f.carts[email] = append(items, entity.CartItem{Product: p, Quantity: 1})
	return f.update(email, "Product added to cart"), nil
}

func (f *FakeStore) IncreaseQuantity(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.carts[email]
	for i := range items {
		if items[i].Product.ID == productID {
			if items[i].Product.Stock > 0 && items[i].Quantity >= items[i].Product.Stock {
				return nil, &ports.RemoteError{StatusCode: http.StatusBadRequest, Message: "Not enough stock"}
			}
			items[i].Quantity++
			return f.update(email, "Quantity increased"), nil
		}
	}
	return nil, &ports.RemoteError{StatusCode: http.StatusNotFound, Message: "Item not found in cart"}
}

func (f *FakeStore) DecreaseQuantity(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.carts[email]
	for i := range items {
		if items[i].Product.ID == productID {
			// The floor is enforced server-side too; the client guard just
			// avoids the round trip.
			if items[i].Quantity <= 1 {
				return nil, &ports.RemoteError{StatusCode: http.StatusBadRequest, Message: "Quantity cannot go below 1"}
			}
			items[i].Quantity--
			return f.update(email, "Quantity decreased"), nil
		}
	}
	return nil, &ports.RemoteError{StatusCode: http.StatusNotFound, Message: "Item not found in cart"}
}

func (f *FakeStore) RemoveItem(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.carts[email]
	for i := range items {
		if items[i].Product.ID == productID {
			f.carts[email] = append(items[:i:i], items[i+1:]...)
			return f.update(email, "Item removed from cart"), nil
		}
	}
	return nil, &ports.RemoteError{StatusCode: http.StatusNotFound, Message: "Item not found in cart"}
}

func (f *FakeStore) ClearCart(ctx context.Context, email string) (*ports.CartUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Clearing an empty (or never-created) cart is a no-op, not an error.
	delete(f.carts, email)
	return f.update(email, "Cart cleared"), nil
}

func (f *FakeStore) PlaceOrder(ctx context.Context, items []entity.OrderItem) (*ports.OrderReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0.0
	for _, it := range items {
		p, ok := f.products[it.ProductID]
		if !ok {
			return nil, &ports.RemoteError{StatusCode: http.StatusNotFound, Message: "Product does not exist"}
		}
		total += p.DiscountedPrice() * float64(it.Quantity)
	}

	order := &entity.Order{
		ID:         uuid.NewString(),
		OwnerEmail: requestmeta.UserEmail(ctx),
		Status:     entity.StatusPending,
		TotalPrice: total,
		Items:      items,
	}
	f.orders[order.ID] = order

	return &ports.OrderReceipt{
		Order:       order,
		Message:     "Order placed successfully",
		RedirectURL: f.RedirectURL,
	}, nil
}

func (f *FakeStore) VerifyOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, &ports.RemoteError{StatusCode: http.StatusNotFound, Message: "Order not found"}
	}
	return order, nil
}

func (f *FakeStore) ListOrdersByEmail(ctx context.Context, email string) ([]entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []entity.Order
	for _, o := range f.orders {
		if o.OwnerEmail == email {
			out = append(out, *o)
		}
	}
	return out, nil
}

// update builds a CartUpdate from the stored cart. Caller must hold mu.
func (f *FakeStore) update(email, message string) *ports.CartUpdate {
	items := make([]entity.CartItem, len(f.carts[email]))
	copy(items, f.carts[email])
	return &ports.CartUpdate{
		Cart:    &entity.Cart{OwnerEmail: email, Items: items},
		Message: message,
	}
}
