package models

import "time"

// Assignment is the exclusive binding of one order to one driver, created
// when the driver wins the acceptance race. For a given order at most one
// active assignment exists at any instant.
type Assignment struct {
	OrderID    int64     `json:"order_id"`
	DriverID   int64     `json:"driver_id"`
	AssignedAt time.Time `json:"assigned_at"`
}
