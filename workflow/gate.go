package workflow

import "driverDeliveryWorkflow/models"

// DefaultPickupChecklist is the checklist applied when no configuration is
// supplied. The set is a configuration surface, not domain law; completeness
// of whichever set is configured is what the gate enforces.
var DefaultPickupChecklist = []string{
	"order_number_match",
	"items_present",
	"packaging_intact",
	"special_instructions_noted",
	"temperature_ok",
}

// Evidence is the payload accompanying the two gated transitions. The UI's
// local checklist state is a client-side convenience only; the gate re-checks
// completeness here and never trusts a client-side "all checked" flag.
type Evidence struct {
	// Pickup gate.
	Checklist map[string]bool
	Notes     string

	// Delivery gate. PhotoRef is an opaque handle to previously uploaded
	// binary evidence; the upload itself is out of scope.
	PhotoRef      string
	GPS           *models.GPSCoordinate
	RecipientNote string
}

// validatePickupEvidence checks that every configured checklist item was
// submitted and checked. Items missing from the submission count as unchecked.
func validatePickupEvidence(checklist []string, ev *Evidence) error {
	var missing []string
	for _, item := range checklist {
		if ev == nil || !ev.Checklist[item] {
			missing = append(missing, item)
		}
	}
	if len(missing) > 0 {
		return &IncompleteChecklistError{Missing: missing}
	}
	return nil
}

// validateDeliveryEvidence checks that photo and GPS evidence are both
// present, failing independently so the caller can prompt precisely.
// GPS accuracy is recorded, never validated: enforcing a threshold would
// strand drivers in poor-signal areas.
func validateDeliveryEvidence(ev *Evidence) error {
	if ev == nil || ev.PhotoRef == "" {
		return ErrMissingPhotoEvidence
	}
	if ev.GPS == nil {
		return ErrMissingLocationEvidence
	}
	return nil
}
