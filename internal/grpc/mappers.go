//go:build grpcserver

package grpcserver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	driverv1 "driverDeliveryWorkflow/api/driver/v1"
	"driverDeliveryWorkflow/models"
	"driverDeliveryWorkflow/workflow"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	cursorSeparator  = "|"
	sqliteDateFormat = "2006-01-02 15:04:05"
)

// statusFromWorkflowErr maps the workflow error taxonomy to gRPC codes so
// clients can show a specific message per condition instead of a generic banner.
func statusFromWorkflowErr(err error) error {
	var checklist *workflow.IncompleteChecklistError
	switch {
	case errors.Is(err, workflow.ErrOrderNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, workflow.ErrOrderNoLongerAvailable):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, workflow.ErrNotOwner):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrMissingPhotoEvidence),
		errors.Is(err, workflow.ErrMissingLocationEvidence):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, workflow.ErrAlreadyConfirmed):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.As(err, &checklist):
		return status.Error(codes.FailedPrecondition, checklist.Error())
	default:
		return status.Errorf(codes.Internal, "workflow: %v", err)
	}
}

func toProtoStatus(s models.DeliveryStatus) driverv1.DeliveryStatus {
	switch s {
	case models.StatusReady:
		return driverv1.DeliveryStatus_READY
	case models.StatusAssigned:
		return driverv1.DeliveryStatus_ASSIGNED
	case models.StatusOnRouteToVendor:
		return driverv1.DeliveryStatus_ON_ROUTE_TO_VENDOR
	case models.StatusArrivedAtVendor:
		return driverv1.DeliveryStatus_ARRIVED_AT_VENDOR
	case models.StatusPickedUp:
		return driverv1.DeliveryStatus_PICKED_UP
	case models.StatusOnRouteToCustomer:
		return driverv1.DeliveryStatus_ON_ROUTE_TO_CUSTOMER
	case models.StatusArrivedAtCustomer:
		return driverv1.DeliveryStatus_ARRIVED_AT_CUSTOMER
	case models.StatusDelivered:
		return driverv1.DeliveryStatus_DELIVERED
	case models.StatusCancelled:
		return driverv1.DeliveryStatus_CANCELLED
	default:
		return driverv1.DeliveryStatus_DELIVERY_STATUS_UNSPECIFIED
	}
}

func fromProtoStatus(s driverv1.DeliveryStatus) (models.DeliveryStatus, bool) {
	switch s {
	case driverv1.DeliveryStatus_READY:
		return models.StatusReady, true
	case driverv1.DeliveryStatus_ASSIGNED:
		return models.StatusAssigned, true
	case driverv1.DeliveryStatus_ON_ROUTE_TO_VENDOR:
		return models.StatusOnRouteToVendor, true
	case driverv1.DeliveryStatus_ARRIVED_AT_VENDOR:
		return models.StatusArrivedAtVendor, true
	case driverv1.DeliveryStatus_PICKED_UP:
		return models.StatusPickedUp, true
	case driverv1.DeliveryStatus_ON_ROUTE_TO_CUSTOMER:
		return models.StatusOnRouteToCustomer, true
	case driverv1.DeliveryStatus_ARRIVED_AT_CUSTOMER:
		return models.StatusArrivedAtCustomer, true
	case driverv1.DeliveryStatus_DELIVERED:
		return models.StatusDelivered, true
	case driverv1.DeliveryStatus_CANCELLED:
		return models.StatusCancelled, true
	default:
		return "", false
	}
}

func toProtoOrder(o *models.Order) *driverv1.Order {
	if o == nil {
		return nil
	}
	out := &driverv1.Order{
		Id:                   o.ID,
		OrderNumber:          o.OrderNumber,
		VendorId:             o.VendorID,
		CustomerId:           o.CustomerID,
		TotalAmount:          o.TotalAmount,
		DeliveryFee:          o.DeliveryFee,
		VendorLocation:       &driverv1.Coordinates{Lat: o.VendorLat, Lng: o.VendorLng},
		DropoffLocation:      &driverv1.Coordinates{Lat: o.DropoffLat, Lng: o.DropoffLng},
		Status:               toProtoStatus(o.Status),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Instructions:         workflow.DriverInstructions(o.Status),
		RequiresConfirmation: workflow.RequiresMandatoryConfirmation(o.Status),
	}
	if o.AssignedDriverID != nil {
		v := *o.AssignedDriverID
		out.AssignedDriverId = &v
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, &driverv1.OrderItem{
			Name:      it.Name,
			Quantity:  int32(it.Quantity),
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}

func toTransitionResponse(s models.DeliveryStatus) *driverv1.TransitionResponse {
	return &driverv1.TransitionResponse{
		Status:               toProtoStatus(s),
		Instructions:         workflow.DriverInstructions(s),
		RequiresConfirmation: workflow.RequiresMandatoryConfirmation(s),
	}
}

func encodeCursor(seconds int64, id int64) string {
	raw := strconv.FormatInt(seconds, 10) + cursorSeparator + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(token string, seconds *int64, id *int64) error {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("base64: %w", err)
	}
	parts := strings.SplitN(string(b), cursorSeparator, 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid cursor format")
	}
	sec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse seconds: %w", err)
	}
	pid, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("parse id: %w", err)
	}
	*seconds = sec
	*id = pid
	return nil
}

func encodeIDCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

func decodeIDCursor(token string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("base64: %w", err)
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id: %w", err)
	}
	return id, nil
}

func timestampToUnixSeconds(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	// SQLite CURRENT_TIMESTAMP default format (UTC).
	if t, err := time.ParseInLocation(sqliteDateFormat, s, time.UTC); err == nil {
		return t.Unix(), nil
	}
	return 0, fmt.Errorf("unsupported timestamp format: %q", s)
}
