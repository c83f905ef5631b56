package workflow

import "driverDeliveryWorkflow/models"

// TransitionEvent identifies a driver action that advances the delivery workflow.
type TransitionEvent string

const (
	EventDriverDeparts           TransitionEvent = "driver_departs"
	EventDriverArrivesAtVendor   TransitionEvent = "driver_arrives_at_vendor"
	EventDriverConfirmsPickup    TransitionEvent = "driver_confirms_pickup"
	EventDriverDepartsToCustomer TransitionEvent = "driver_departs_to_customer"
	EventDriverArrivesAtCustomer TransitionEvent = "driver_arrives_at_customer"
	EventDriverConfirmsDelivery  TransitionEvent = "driver_confirms_delivery"
	EventCancel                  TransitionEvent = "cancel"
)

type transition struct {
	from  models.DeliveryStatus
	to    models.DeliveryStatus
	gated bool // requires a validated evidence record before committing
}

// transitions is the single authority on the linear happy path. Cancellation
// is handled separately: it is reachable from any non-terminal status.
var transitions = map[TransitionEvent]transition{
	EventDriverDeparts:           {from: models.StatusAssigned, to: models.StatusOnRouteToVendor},
	EventDriverArrivesAtVendor:   {from: models.StatusOnRouteToVendor, to: models.StatusArrivedAtVendor},
	EventDriverConfirmsPickup:    {from: models.StatusArrivedAtVendor, to: models.StatusPickedUp, gated: true},
	EventDriverDepartsToCustomer: {from: models.StatusPickedUp, to: models.StatusOnRouteToCustomer},
	EventDriverArrivesAtCustomer: {from: models.StatusOnRouteToCustomer, to: models.StatusArrivedAtCustomer},
	EventDriverConfirmsDelivery:  {from: models.StatusArrivedAtCustomer, to: models.StatusDelivered, gated: true},
}
