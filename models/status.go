package models

// DeliveryStatus represents the current progress of an order through the
// driver workflow. The non-terminal statuses form a strict total order;
// cancelled is reachable from any non-terminal status.
type DeliveryStatus string

const (
	// StatusReady is the pre-workflow state: the order is placed, prepared,
	// and waiting for a driver to accept it. No assignment exists yet.
	StatusReady DeliveryStatus = "ready"

	StatusAssigned          DeliveryStatus = "assigned"
	StatusOnRouteToVendor   DeliveryStatus = "on_route_to_vendor"
	StatusArrivedAtVendor   DeliveryStatus = "arrived_at_vendor"
	StatusPickedUp          DeliveryStatus = "picked_up"
	StatusOnRouteToCustomer DeliveryStatus = "on_route_to_customer"
	StatusArrivedAtCustomer DeliveryStatus = "arrived_at_customer"
	StatusDelivered         DeliveryStatus = "delivered"
	StatusCancelled         DeliveryStatus = "cancelled"
)

// statusRank defines the total order over workflow statuses.
// cancelled carries no rank; it is out-of-band.
var statusRank = map[DeliveryStatus]int{
	StatusReady:             0,
	StatusAssigned:          1,
	StatusOnRouteToVendor:   2,
	StatusArrivedAtVendor:   3,
	StatusPickedUp:          4,
	StatusOnRouteToCustomer: 5,
	StatusArrivedAtCustomer: 6,
	StatusDelivered:         7,
}

// Rank returns the position of the status in the workflow order and whether
// the status participates in that order (cancelled and unknown values do not).
func (s DeliveryStatus) Rank() (int, bool) {
	r, ok := statusRank[s]
	return r, ok
}

// Terminal reports whether no further transitions are permitted.
func (s DeliveryStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s DeliveryStatus) String() string {
	return string(s)
}
