package models

// Order represents a food-delivery order moving through the driver workflow.
// Identity and financial fields are written once at intake; the workflow core
// only mutates AssignedDriverID and Status (plus UpdatedAt).
type Order struct {
	ID          int64   `db:"id" json:"id"`
	OrderNumber string  `db:"order_number" json:"order_number"`
	VendorID    int64   `db:"vendor_id" json:"vendor_id"`
	CustomerID  int64   `db:"customer_id" json:"customer_id"`
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
	DeliveryFee float64 `db:"delivery_fee" json:"delivery_fee"`
	// Pickup and dropoff coordinates. The dropoff point is compared against
	// the GPS evidence captured at delivery confirmation for the audit trail.
	VendorLat  float64 `db:"vendor_lat" json:"vendor_lat"`
	VendorLng  float64 `db:"vendor_lng" json:"vendor_lng"`
	DropoffLat float64 `db:"dropoff_lat" json:"dropoff_lat"`
	DropoffLng float64 `db:"dropoff_lng" json:"dropoff_lng"`
	// AssignedDriverID is nullable in DB; nil means unassigned. At most one
	// active assignment exists per order, enforced by a conditional write.
	AssignedDriverID *int64         `db:"assigned_driver_id" json:"assigned_driver_id"`
	Status           DeliveryStatus `db:"status" json:"status"`
	CreatedAt        string         `db:"created_at" json:"created_at"`
	UpdatedAt        string         `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is a single line item on an order.
type OrderItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   int64   `db:"order_id" json:"order_id"`
	Name      string  `db:"name" json:"name"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
}
