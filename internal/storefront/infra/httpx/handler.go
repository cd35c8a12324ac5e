package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phonehub/storefront/internal/checkout"
	"github.com/phonehub/storefront/internal/pkg/requestmeta"
	"github.com/phonehub/storefront/internal/storefront/core/cart"
	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

// Handler translates UI events (tap "+", tap "remove", tap "checkout") into
// cart controller and checkout flow calls, and renders the refreshed server
// state plus the transient notifications back to the client.
type Handler struct {
	carts  *cart.Controller
	flow   *checkout.Flow
	orders ports.OrderGateway
}

func NewHandler(carts *cart.Controller, flow *checkout.Flow, orders ports.OrderGateway) *Handler {
	return &Handler{
		carts:  carts,
		flow:   flow,
		orders: orders,
	}
}

// GetCart renders the authoritative cart, always re-fetched from the store.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	email := h.actingEmail(r)

	c, err := h.carts.FetchCart(r.Context(), email)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeCart(w, r, c)
}

// AddItem adds a product to the cart (increment-or-create server-side).
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), nil)
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id is required", nil)
		return
	}

	c, err := h.carts.AddItem(r.Context(), h.actingEmail(r), req.ProductID)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeCart(w, r, c)
}

// IncreaseQuantity bumps the line quantity by one.
func (h *Handler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.IncreaseQuantity(r.Context(), h.actingEmail(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeCart(w, r, c)
}

// DecreaseQuantity lowers the line quantity by one, floored at 1.
func (h *Handler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.DecreaseQuantity(r.Context(), h.actingEmail(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeCart(w, r, c)
}

// RemoveItem deletes the line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), h.actingEmail(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeCart(w, r, c)
}

// ClearCart empties the cart. Idempotent.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.ClearCart(r.Context(), h.actingEmail(r))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeCart(w, r, c)
}

// Checkout turns the current cart into an order. The cart snapshot submitted
// is re-fetched from the store, never taken from a client payload.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	email := h.actingEmail(r)
	if email == "" {
		h.writeFailure(w, r, cart.ErrNotSignedIn)
		return
	}

	snapshot, err := h.carts.FetchCart(r.Context(), email)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "checkout requested",
		"request_id", requestmeta.RequestID(r.Context()),
		"items", len(snapshot.Items),
	)

	result, err := h.flow.Checkout(r.Context(), email, snapshot)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	resp := CheckoutResponse{
		Message:       result.Message,
		RedirectURL:   result.RedirectURL,
		Replayed:      result.Replayed,
		Notifications: notificationsFrom(r),
	}
	if result.Order != nil {
		o := mapOrderToResponse(result.Order)
		resp.Order = &o
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListOrders returns the user's order history.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	email := h.actingEmail(r)
	if email == "" {
		h.writeFailure(w, r, cart.ErrNotSignedIn)
		return
	}

	orders, err := h.orders.ListOrdersByEmail(r.Context(), email)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	resp := OrderListResponse{Orders: make([]OrderResponse, 0, len(orders))}
	for i := range orders {
		resp.Orders = append(resp.Orders, mapOrderToResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// VerifyOrder resolves the order a payment gateway echoes back.
func (h *Handler) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "", nil)
		return
	}

	order, err := h.orders.VerifyOrder(r.Context(), orderID)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	resp := mapOrderToResponse(order)
	writeJSON(w, http.StatusOK, resp)
}

// actingEmail resolves the identity for the request. Without a bearer token
// there is no signed-in user, regardless of what the path says — the
// controller guards then reject the action before any remote call.
func (h *Handler) actingEmail(r *http.Request) string {
	if requestmeta.BearerToken(r.Context()) == "" {
		return ""
	}
	return chi.URLParam(r, "email")
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, c *entity.Cart) {
	writeJSON(w, http.StatusOK, mapCartToResponse(c, h.carts.Pending(c.OwnerEmail), notificationsFrom(r)))
}

// writeFailure maps domain errors onto HTTP statuses. Notifications gathered
// so far ride along so the UI can still toast them.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	notices := notificationsFrom(r)

	switch {
	case errors.Is(err, cart.ErrNotSignedIn):
		writeError(w, http.StatusUnauthorized, "not_signed_in", err.Error(), notices)
	case errors.Is(err, cart.ErrQuantityFloor):
		writeError(w, http.StatusConflict, "quantity_floor", err.Error(), notices)
	case errors.Is(err, cart.ErrOperationInFlight):
		writeError(w, http.StatusConflict, "operation_in_flight", err.Error(), notices)
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error(), notices)
	default:
		// Remote failures are non-fatal: surface the server message and keep
		// the cart view usable.
		writeError(w, http.StatusBadGateway, "remote_store_error", ports.UserMessage(err, "Something went wrong"), notices)
	}
}

func mapCartToResponse(c *entity.Cart, pending map[string]cart.Operation, notices []Notice) CartResponse {
	items := make([]CartItemDTO, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItemDTO{
			Product: ProductDTO{
				ID:       it.Product.ID,
				Brand:    it.Product.Brand,
				Model:    it.Product.Model,
				Price:    it.Product.Price,
				Discount: it.Product.Discount,
				InStock:  it.Product.InStock,
			},
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
			Pending:   string(pending[it.Product.ID]),
		})
	}

	_, clearing := pending[""]

	return CartResponse{
		Email:         c.OwnerEmail,
		Items:         items,
		TotalQuantity: c.TotalQuantity(),
		Subtotal:      c.Subtotal(),
		TotalDiscount: c.TotalDiscount(),
		TotalPrice:    c.TotalPrice(),
		Clearing:      clearing,
		Notifications: notices,
	}
}

func mapOrderToResponse(o *entity.Order) OrderResponse {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{Product: it.ProductID, Quantity: it.Quantity})
	}
	stage, _ := o.Status.Stage()
	return OrderResponse{
		ID:         o.ID,
		Status:     o.Status.String(),
		Stage:      stage,
		TotalPrice: o.TotalPrice,
		Items:      items,
		CreatedAt:  o.CreatedAt,
	}
}

func notificationsFrom(r *http.Request) []Notice {
	if b := boardFrom(r.Context()); b != nil {
		return b.list()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, notices []Notice) {
	writeJSON(w, status, ErrorResponse{
		Error:         code,
		Message:       msg,
		Notifications: notices,
	})
}
