package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"driverDeliveryWorkflow/models"
)

func TestDisplayMetadataCoversAllStatuses(t *testing.T) {
	statuses := []models.DeliveryStatus{
		models.StatusReady,
		models.StatusAssigned,
		models.StatusOnRouteToVendor,
		models.StatusArrivedAtVendor,
		models.StatusPickedUp,
		models.StatusOnRouteToCustomer,
		models.StatusArrivedAtCustomer,
		models.StatusDelivered,
		models.StatusCancelled,
	}
	for _, s := range statuses {
		assert.NotEmpty(t, DriverInstructions(s), "instructions for %s", s)
		assert.NotEmpty(t, DisplayName(s), "display name for %s", s)
	}
	// Unknown statuses fall back to the raw value rather than empty UI copy.
	assert.Equal(t, "bogus", DisplayName(models.DeliveryStatus("bogus")))
}

func TestRequiresMandatoryConfirmation(t *testing.T) {
	assert.True(t, RequiresMandatoryConfirmation(models.StatusArrivedAtVendor))
	assert.True(t, RequiresMandatoryConfirmation(models.StatusArrivedAtCustomer))
	assert.False(t, RequiresMandatoryConfirmation(models.StatusAssigned))
	assert.False(t, RequiresMandatoryConfirmation(models.StatusDelivered))
}
