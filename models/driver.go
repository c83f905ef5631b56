package models

// DriverStatus represents the availability of a driver.
type DriverStatus string

const (
	DriverStatusActive  DriverStatus = "active"
	DriverStatusOffline DriverStatus = "offline"
)

// Driver represents a delivery driver.
// The driver's current order is tracked on orders.assigned_driver_id,
// not here, so the conditional-write assignment discipline has a single home.
type Driver struct {
	ID        int64        `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Phone     string       `db:"phone" json:"phone"`
	Lat       float64      `db:"lat" json:"lat"`
	Lng       float64      `db:"lng" json:"lng"`
	Status    DriverStatus `db:"status" json:"status"`
	CreatedAt string       `db:"created_at" json:"created_at"`
}
