package httpx

type AddItemRequest struct {
	ProductID string `json:"product_id"`
}

type ProductDTO struct {
	ID       string  `json:"id"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	InStock  bool    `json:"in_stock"`
}

type CartItemDTO struct {
	Product   ProductDTO `json:"product"`
	Quantity  int        `json:"quantity"`
	LineTotal float64    `json:"line_total"`
	// Pending names the in-flight operation for this item, "" when idle.
	// Lets the UI render a per-item busy indicator.
	Pending string `json:"pending,omitempty"`
}

type CartResponse struct {
	Email         string        `json:"email"`
	Items         []CartItemDTO `json:"items"`
	TotalQuantity int           `json:"total_quantity"`
	Subtotal      float64       `json:"subtotal"`
	TotalDiscount float64       `json:"total_discount"`
	TotalPrice    float64       `json:"total_price"`
	// Clearing is true while a whole-cart operation is outstanding.
	Clearing      bool     `json:"clearing,omitempty"`
	Notifications []Notice `json:"notifications,omitempty"`
}

type OrderItemDTO struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type OrderResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Stage      int            `json:"stage"`
	TotalPrice float64        `json:"total_price"`
	Items      []OrderItemDTO `json:"items"`
	CreatedAt  string         `json:"created_at,omitempty"`
}

type CheckoutResponse struct {
	Order         *OrderResponse `json:"order,omitempty"`
	Message       string         `json:"message"`
	RedirectURL   string         `json:"redirect_url,omitempty"`
	Replayed      bool           `json:"replayed,omitempty"`
	Notifications []Notice       `json:"notifications,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type ErrorResponse struct {
	Error         string   `json:"error"`
	Message       string   `json:"message,omitempty"`
	Notifications []Notice `json:"notifications,omitempty"`
}
