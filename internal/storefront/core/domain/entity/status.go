package entity

// OrderStatus is the single authoritative order lifecycle enumeration, used
// by both the tracking view and the management view.
//
// Historically the storefront shipped two vocabularies: the tracking page
// showed "Order Placed → Processing → Shipped → Out for Delivery → Delivered"
// while the admin page only knew {Pending, Shipped, Delivered}. ParseOrderStatus
// accepts the legacy labels so records written under either set still load.
type OrderStatus string

const (
	StatusPending        OrderStatus = "Pending"
	StatusProcessing     OrderStatus = "Processing"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// orderStatusStages lists the forward lifecycle in tracking order.
// Cancelled sits outside the progression.
var orderStatusStages = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
}

// ParseOrderStatus normalizes a status label from the remote store.
// "Order Placed" is the legacy tracking alias for Pending. Unknown labels
// fall back to Pending rather than failing the whole cart/order view.
func ParseOrderStatus(s string) OrderStatus {
	switch s {
	case "Order Placed":
		return StatusPending
	case string(StatusPending), string(StatusProcessing), string(StatusShipped),
		string(StatusOutForDelivery), string(StatusDelivered), string(StatusCancelled):
		return OrderStatus(s)
	default:
		return StatusPending
	}
}

// Stage returns the zero-based position of the status in the tracking
// progression, and ok=false for Cancelled or unknown values.
func (s OrderStatus) Stage() (int, bool) {
	for i, stage := range orderStatusStages {
		if s == stage {
			return i, true
		}
	}
	return 0, false
}

func (s OrderStatus) String() string { return string(s) }
