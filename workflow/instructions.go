package workflow

import "driverDeliveryWorkflow/models"

// Display metadata lives here, outside the state machine, so the machine
// carries zero UI coupling. These lookups feed UI copy only; they never
// drive transition decisions.

var driverInstructions = map[models.DeliveryStatus]string{
	models.StatusReady:             "Order is waiting for a driver. Accept it to begin.",
	models.StatusAssigned:          "Head to the vendor to collect the order.",
	models.StatusOnRouteToVendor:   "You are on the way to the vendor. Mark arrival when you get there.",
	models.StatusArrivedAtVendor:   "Complete the pickup checklist to confirm you collected the order.",
	models.StatusPickedUp:          "Order collected. Depart for the customer when ready.",
	models.StatusOnRouteToCustomer: "You are on the way to the customer. Mark arrival when you get there.",
	models.StatusArrivedAtCustomer: "Take a delivery photo and confirm to complete the delivery. This cannot be undone.",
	models.StatusDelivered:         "Delivery complete. Thanks for driving!",
	models.StatusCancelled:         "This order was cancelled. No further action is needed.",
}

var displayNames = map[models.DeliveryStatus]string{
	models.StatusReady:             "Ready",
	models.StatusAssigned:          "Assigned",
	models.StatusOnRouteToVendor:   "On Route to Vendor",
	models.StatusArrivedAtVendor:   "Arrived at Vendor",
	models.StatusPickedUp:          "Picked Up",
	models.StatusOnRouteToCustomer: "On Route to Customer",
	models.StatusArrivedAtCustomer: "Arrived at Customer",
	models.StatusDelivered:         "Delivered",
	models.StatusCancelled:         "Cancelled",
}

// DriverInstructions returns the short instruction text shown to the driver
// for the given status.
func DriverInstructions(s models.DeliveryStatus) string {
	return driverInstructions[s]
}

// DisplayName returns the human-readable name of a status.
func DisplayName(s models.DeliveryStatus) string {
	if n, ok := displayNames[s]; ok {
		return n
	}
	return string(s)
}

// RequiresMandatoryConfirmation reports whether the next transition out of
// this status is an evidence gate.
func RequiresMandatoryConfirmation(s models.DeliveryStatus) bool {
	return s == models.StatusArrivedAtVendor || s == models.StatusArrivedAtCustomer
}
