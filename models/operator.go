package models

// Operator represents a fleet operator account. Operators create orders,
// release assignments for reassignment, and may cancel any non-terminal order.
type Operator struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}
