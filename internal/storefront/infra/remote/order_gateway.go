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

// Ensure OrderGateway implements the port at compile time.
var _ ports.OrderGateway = (*OrderGateway)(nil)

// OrderGateway talks to the remote order endpoints.
type OrderGateway struct {
	client *Client
}

func NewOrderGateway(client *Client) *OrderGateway {
	return &OrderGateway{client: client}
}

// orderItemDTO is the submission shape: product reference and quantity only.
// Price and product detail are stripped — the server computes prices
// authoritatively and must not trust client state.
type orderItemDTO struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// The order endpoint's historical field name for the item list.
type placeOrderRequest struct {
	Phones []orderItemDTO `json:"phones"`
}

type orderDTO struct {
	ID         string  `json:"_id"`
	UserEmail  string  `json:"userEmail"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"totalPrice"`
	CreatedAt  string  `json:"createdAt"`
	Products   []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"products"`
}

// PlaceOrder submits the cart snapshot. The response data is either a bare
// payment-gateway URL (string) or an order record; both are handled.
func (g *OrderGateway) PlaceOrder(ctx context.Context, items []entity.OrderItem) (*ports.OrderReceipt, error) {
	req := placeOrderRequest{Phones: make([]orderItemDTO, 0, len(items))}
	for _, it := range items {
		req.Phones = append(req.Phones, orderItemDTO{
			Product:  it.ProductID,
			Quantity: it.Quantity,
		})
	}

	env, err := g.client.do(ctx, http.MethodPost, "/order", req)
	if err != nil {
		return nil, err
	}

	receipt := &ports.OrderReceipt{Message: env.Message}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return receipt, nil
	}

	// A JSON string payload is the payment redirect target.
	var redirect string
	if err := json.Unmarshal(env.Data, &redirect); err == nil {
		receipt.RedirectURL = redirect
		return receipt, nil
	}

	var dto orderDTO
	if err := json.Unmarshal(env.Data, &dto); err != nil {
		return nil, fmt.Errorf("remote: decode order: %w", err)
	}
	receipt.Order = mapOrder(dto)
	return receipt, nil
}

// VerifyOrder looks up an order by the id a payment gateway echoes back.
func (g *OrderGateway) VerifyOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	env, err := g.client.do(ctx, http.MethodGet, "/order/verify?order_id="+url.QueryEscape(orderID), nil)
	if err != nil {
		return nil, err
	}

	var dto orderDTO
	if err := json.Unmarshal(env.Data, &dto); err != nil {
		// Some store versions wrap the verified order in a one-element array.
		var list []orderDTO
		if err2 := json.Unmarshal(env.Data, &list); err2 != nil || len(list) == 0 {
			return nil, fmt.Errorf("remote: decode verified order: %w", err)
		}
		dto = list[0]
	}

	return mapOrder(dto), nil
}

// ListOrdersByEmail returns the user's order history.
func (g *OrderGateway) ListOrdersByEmail(ctx context.Context, email string) ([]entity.Order, error) {
	env, err := g.client.do(ctx, http.MethodGet, "/order/by-email/"+url.PathEscape(email), nil)
	if err != nil {
		return nil, err
	}

	var dtos []orderDTO
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &dtos); err != nil {
			return nil, fmt.Errorf("remote: decode orders: %w", err)
		}
	}

	orders := make([]entity.Order, 0, len(dtos))
	for _, dto := range dtos {
		orders = append(orders, *mapOrder(dto))
	}
	return orders, nil
}

func mapOrder(dto orderDTO) *entity.Order {
	items := make([]entity.OrderItem, 0, len(dto.Products))
	for _, p := range dto.Products {
		items = append(items, entity.OrderItem{
			ProductID: p.Product,
			Quantity:  p.Quantity,
		})
	}
	return &entity.Order{
		ID:         dto.ID,
		OwnerEmail: dto.UserEmail,
		Status:     entity.ParseOrderStatus(dto.Status),
		TotalPrice: dto.TotalPrice,
		Items:      items,
		CreatedAt:  dto.CreatedAt,
	}
}
