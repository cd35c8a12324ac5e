package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

// Ensure CartStore implements the port at compile time.
var _ ports.CartStore = (*CartStore)(nil)

// CartStore talks to the remote cart endpoints.
type CartStore struct {
	client *Client
}

func NewCartStore(client *Client) *CartStore {
	return &CartStore{client: client}
}

// productDTO mirrors the remote product record. The remote "quantity" field
// is the stock count, not a cart quantity.
type productDTO struct {
	ID       string  `json:"_id"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Quantity int     `json:"quantity"`
	InStock  bool    `json:"inStock"`
}

type cartItemDTO struct {
	Product  productDTO `json:"product"`
	Quantity int        `json:"quantity"`
}

type cartDTO struct {
	UserEmail string        `json:"userEmail"`
	Items     []cartItemDTO `json:"items"`
}

func (s *CartStore) FetchCart(ctx context.Context, email string) (*ports.CartUpdate, error) {
	env, err := s.client.do(ctx, http.MethodGet, "/cart/by-email/"+url.PathEscape(email), nil)
	if err != nil {
		return nil, err
	}
	return decodeCartUpdate(env, email)
}

func (s *CartStore) AddItem(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	body := map[string]string{"email": email, "productId": productID}
	env, err := s.client.do(ctx, http.MethodPost, "/cart/add", body)
	if err != nil {
		return nil, err
	}
	return decodeCartUpdate(env, email)
}

func (s *CartStore) IncreaseQuantity(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	env, err := s.client.do(ctx, http.MethodPatch, itemPath("/cart/increase-quantity", email, productID), nil)
	if err != nil {
		return nil, err
	}
	return decodeCartUpdate(env, email)
}

func (s *CartStore) DecreaseQuantity(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	env, err := s.client.do(ctx, http.MethodPatch, itemPath("/cart/decrease-quantity", email, productID), nil)
	if err != nil {
		return nil, err
	}
	return decodeCartUpdate(env, email)
}

func (s *CartStore) RemoveItem(ctx context.Context, email, productID string) (*ports.CartUpdate, error) {
	env, err := s.client.do(ctx, http.MethodDelete, itemPath("/cart/remove", email, productID), nil)
	if err != nil {
		return nil, err
	}
	return decodeCartUpdate(env, email)
}

func (s *CartStore) ClearCart(ctx context.Context, email string) (*ports.CartUpdate, error) {
	env, err := s.client.do(ctx, http.MethodDelete, "/cart/clear/"+url.PathEscape(email), nil)
	if err != nil {
		return nil, err
	}
	return decodeCartUpdate(env, email)
}

func itemPath(prefix, email, productID string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, url.PathEscape(email), url.PathEscape(productID))
}

// decodeCartUpdate maps the envelope's data into the domain cart. A null or
// missing payload decodes as an empty cart — the store answers that way for
// users who never added anything.
func decodeCartUpdate(env *envelope, email string) (*ports.CartUpdate, error) {
	cart := &entity.Cart{OwnerEmail: email}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		var dto cartDTO
		if err := json.Unmarshal(env.Data, &dto); err != nil {
			return nil, fmt.Errorf("remote: decode cart: %w", err)
		}
		cart.Items = mapCartItems(dto.Items)
	}

	return &ports.CartUpdate{Cart: cart, Message: env.Message}, nil
}

func mapCartItems(items []cartItemDTO) []entity.CartItem {
	out := make([]entity.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, entity.CartItem{
			Product: entity.Product{
				ID:       it.Product.ID,
				Brand:    it.Product.Brand,
				Model:    it.Product.Model,
				Price:    it.Product.Price,
				Discount: it.Product.Discount,
				Stock:    it.Product.Quantity,
				InStock:  it.Product.InStock,
			},
			Quantity: it.Quantity,
		})
	}
	return out
}
