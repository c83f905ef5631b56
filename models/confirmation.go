package models

// ConfirmationKind discriminates the two evidence records in the
// append-only confirmations table.
type ConfirmationKind string

const (
	ConfirmationKindPickup   ConfirmationKind = "pickup"
	ConfirmationKindDelivery ConfirmationKind = "delivery"
)

// GPSCoordinate is a location fix captured at confirmation time.
// Accuracy is recorded but not validated; poor-signal areas must not
// block a driver from confirming.
type GPSCoordinate struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracy_m"`
}

// PickupConfirmation is the evidence record created at the
// arrived_at_vendor -> picked_up gate. Immutable once written.
type PickupConfirmation struct {
	ID          string          `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	ConfirmedBy int64           `db:"confirmed_by" json:"confirmed_by"`
	ConfirmedAt string          `db:"confirmed_at" json:"confirmed_at"`
	Checklist   map[string]bool `db:"checklist" json:"checklist"`
	Notes       string          `db:"notes" json:"notes,omitempty"`
}

// DeliveryConfirmation is the evidence record created at the
// arrived_at_customer -> delivered gate. Photo and GPS are both mandatory.
// DistanceToDropoffM is the haversine distance between the GPS fix and the
// order's dropoff point, stored for audit only.
type DeliveryConfirmation struct {
	ID                 string        `db:"id" json:"id"`
	OrderID            int64         `db:"order_id" json:"order_id"`
	ConfirmedBy        int64         `db:"confirmed_by" json:"confirmed_by"`
	ConfirmedAt        string        `db:"confirmed_at" json:"confirmed_at"`
	PhotoRef           string        `db:"photo_ref" json:"photo_ref"`
	GPS                GPSCoordinate `db:"-" json:"gps"`
	RecipientNote      string        `db:"recipient_note" json:"recipient_note,omitempty"`
	DistanceToDropoffM float64       `db:"distance_to_dropoff_m" json:"distance_to_dropoff_m"`
}
