package events

import (
	"context"
	"time"
)

// StatusChanged is emitted after every committed status transition.
// Downstream consumers (order history, earnings) key off the terminal events.
type StatusChanged struct {
	EventID     string    `json:"event_id"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	DriverID    int64     `json:"driver_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DriverAssigned is emitted when a driver wins the acceptance race.
type DriverAssigned struct {
	EventID     string    `json:"event_id"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	DriverID    int64     `json:"driver_id"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// Publisher emits workflow events. Publishing is best effort from the
// workflow's point of view: a committed transition is never rolled back
// because the event could not be delivered.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
	PublishDriverAssigned(ctx context.Context, ev DriverAssigned) error
	Close() error
}

// Noop discards all events. Used in tests and in binaries that only read.
type Noop struct{}

func (Noop) PublishStatusChanged(context.Context, StatusChanged) error { return nil }
func (Noop) PublishDriverAssigned(context.Context, DriverAssigned) error {
	return nil
}
func (Noop) Close() error { return nil }
