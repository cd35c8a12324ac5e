package entity

// OrderItem is the payload shape for one ordered line: a product reference
// and a quantity, nothing else. Prices are recomputed server-side and must
// not be trusted from client state.
type OrderItem struct {
	ProductID string
	Quantity  int
}

// Order is the value copy the remote store returns after checkout. It keeps
// no live link to the cart — the cart is cleared right after placement.
type Order struct {
	ID         string
	OwnerEmail string
	Status     OrderStatus
	TotalPrice float64
	Items      []OrderItem
	CreatedAt  string
}

// OrderSnapshot maps the cart's items into the order submission payload,
// stripping all denormalized product detail.
func OrderSnapshot(c Cart) []OrderItem {
	items := make([]OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, OrderItem{
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
		})
	}
	return items
}
