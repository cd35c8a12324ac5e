package entity

// Product is the catalog record a cart item points at. Prices and stock are
// owned by the remote store; the gateway never recomputes or overrides them.
type Product struct {
	ID       string
	Brand    string
	Model    string
	Price    float64
	Discount float64 // percentage, 0–100
	Stock    int
	InStock  bool
}

// DiscountedPrice returns the unit price after the percentage discount.
func (p Product) DiscountedPrice() float64 {
	if p.Discount > 0 {
		return p.Price * (1 - p.Discount/100)
	}
	return p.Price
}

// CartItem is one product line in a cart. Quantity is never below 1: a line
// that would drop to zero must be removed instead.
type CartItem struct {
	Product  Product
	Quantity int
}

// LineGross is the undiscounted line total.
func (i CartItem) LineGross() float64 {
	return i.Product.Price * float64(i.Quantity)
}

// LineDiscount is the discount amount for the whole line.
func (i CartItem) LineDiscount() float64 {
	if i.Product.Discount > 0 {
		return i.Product.Price * (i.Product.Discount / 100) * float64(i.Quantity)
	}
	return 0
}

// LineTotal is the discounted line total (what the customer pays).
func (i CartItem) LineTotal() float64 {
	return i.Product.DiscountedPrice() * float64(i.Quantity)
}

// Cart is the server-owned collection of items for one user, keyed by email.
// Item order reflects server storage order. All totals are derived on demand;
// nothing here is persisted client-side.
type Cart struct {
	OwnerEmail string
	Items      []CartItem
}

// IsEmpty reports whether the cart has no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity is the sum of all item quantities.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Subtotal is the sum of undiscounted line totals.
func (c Cart) Subtotal() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.LineGross()
	}
	return total
}

// TotalDiscount is the sum of per-line discount amounts.
func (c Cart) TotalDiscount() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.LineDiscount()
	}
	return total
}

// TotalPrice is Subtotal minus TotalDiscount.
func (c Cart) TotalPrice() float64 {
	return c.Subtotal() - c.TotalDiscount()
}

// Item returns the cart line for productID, if present.
func (c Cart) Item(productID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.Product.ID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}
