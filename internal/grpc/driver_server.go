//go:build grpcserver

package grpcserver

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	driverv1 "driverDeliveryWorkflow/api/driver/v1"
	"driverDeliveryWorkflow/internal/auth"
	"driverDeliveryWorkflow/models"
	"driverDeliveryWorkflow/repository"
	"driverDeliveryWorkflow/workflow"
)

// DriverServer implements driver.v1.DriverService.
type DriverServer struct {
	driverv1.UnimplementedDriverServiceServer
	Engine  *workflow.Engine
	Orders  *repository.OrderRepository
	Drivers *repository.DriverRepository
}

// resolveDriver retrieves the driver row for the authenticated principal.
func (s *DriverServer) resolveDriver(ctx context.Context) (*models.Driver, error) {
	p, err := auth.RequireDriver(ctx)
	if err != nil {
		return nil, err
	}
	dr, err := s.Drivers.GetByName(ctx, p.Name)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get driver: %v", err)
	}
	if dr == nil {
		return nil, status.Error(codes.NotFound, "driver not found")
	}
	return dr, nil
}

// AcceptOrder claims a ready order for the calling driver. Exactly one of
// N concurrent accepts wins; the rest receive Aborted.
func (s *DriverServer) AcceptOrder(ctx context.Context, req *driverv1.AcceptOrderRequest) (*driverv1.AcceptOrderResponse, error) {
	dr, err := s.resolveDriver(ctx)
	if err != nil {
		return nil, err
	}
	if req.GetOrderId() == 0 {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	asg, err := s.Engine.AcceptOrder(ctx, req.GetOrderId(), dr.ID)
	if err != nil {
		return nil, statusFromWorkflowErr(err)
	}
	ord, err := s.Orders.GetByID(ctx, req.GetOrderId())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get order: %v", err)
	}
	return &driverv1.AcceptOrderResponse{
		Assignment: &driverv1.Assignment{
			OrderId:    asg.OrderID,
			DriverId:   asg.DriverID,
			AssignedAt: timestamppb.New(asg.AssignedAt),
		},
		Order: toProtoOrder(ord),
	}, nil
}

// GetCurrentOrder returns the driver's active order, if any.
func (s *DriverServer) GetCurrentOrder(ctx context.Context, _ *driverv1.GetCurrentOrderRequest) (*driverv1.GetCurrentOrderResponse, error) {
	dr, err := s.resolveDriver(ctx)
	if err != nil {
		return nil, err
	}
	ord, err := s.Orders.FindByAssignedDriver(ctx, dr.ID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "find order: %v", err)
	}
	if ord == nil {
		return nil, status.Error(codes.NotFound, "no active order")
	}
	return &driverv1.GetCurrentOrderResponse{Order: toProtoOrder(ord)}, nil
}

// ListAvailableOrders returns unassigned ready orders, oldest first.
func (s *DriverServer) ListAvailableOrders(ctx context.Context, req *driverv1.ListAvailableOrdersRequest) (*driverv1.ListAvailableOrdersResponse, error) {
	if _, err := s.resolveDriver(ctx); err != nil {
		return nil, err
	}
	list, err := s.Orders.ListAvailable(ctx, int(req.GetPageSize()))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list available: %v", err)
	}
	resp := &driverv1.ListAvailableOrdersResponse{}
	for i := range list {
		resp.Orders = append(resp.Orders, toProtoOrder(&list[i]))
	}
	return resp, nil
}

func (s *DriverServer) transition(ctx context.Context, orderID int64, event workflow.TransitionEvent, ev *workflow.Evidence) (*driverv1.TransitionResponse, error) {
	dr, err := s.resolveDriver(ctx)
	if err != nil {
		return nil, err
	}
	if orderID == 0 {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	st, err := s.Engine.RequestTransition(ctx, orderID, dr.ID, event, ev)
	if err != nil {
		return nil, statusFromWorkflowErr(err)
	}
	return toTransitionResponse(st), nil
}

// DepartForVendor marks the driver as on route to the vendor.
func (s *DriverServer) DepartForVendor(ctx context.Context, req *driverv1.DepartForVendorRequest) (*driverv1.TransitionResponse, error) {
	return s.transition(ctx, req.GetOrderId(), workflow.EventDriverDeparts, nil)
}

// ArriveAtVendor marks arrival at the vendor; the pickup gate opens next.
func (s *DriverServer) ArriveAtVendor(ctx context.Context, req *driverv1.ArriveAtVendorRequest) (*driverv1.TransitionResponse, error) {
	return s.transition(ctx, req.GetOrderId(), workflow.EventDriverArrivesAtVendor, nil)
}

// ConfirmPickup submits the checklist evidence for the pickup gate.
func (s *DriverServer) ConfirmPickup(ctx context.Context, req *driverv1.ConfirmPickupRequest) (*driverv1.TransitionResponse, error) {
	ev := &workflow.Evidence{
		Checklist: req.GetChecklist(),
		Notes:     req.GetNotes(),
	}
	return s.transition(ctx, req.GetOrderId(), workflow.EventDriverConfirmsPickup, ev)
}

// DepartForCustomer marks the driver as on route to the customer.
func (s *DriverServer) DepartForCustomer(ctx context.Context, req *driverv1.DepartForCustomerRequest) (*driverv1.TransitionResponse, error) {
	return s.transition(ctx, req.GetOrderId(), workflow.EventDriverDepartsToCustomer, nil)
}

// ArriveAtCustomer marks arrival at the customer; the delivery gate opens next.
func (s *DriverServer) ArriveAtCustomer(ctx context.Context, req *driverv1.ArriveAtCustomerRequest) (*driverv1.TransitionResponse, error) {
	return s.transition(ctx, req.GetOrderId(), workflow.EventDriverArrivesAtCustomer, nil)
}

// ConfirmDelivery submits photo + GPS evidence for the delivery gate.
// Once recorded the delivery is final; only operator cancellation can undo the order.
func (s *DriverServer) ConfirmDelivery(ctx context.Context, req *driverv1.ConfirmDeliveryRequest) (*driverv1.TransitionResponse, error) {
	ev := &workflow.Evidence{
		PhotoRef:      req.GetPhotoRef(),
		RecipientNote: req.GetRecipientNote(),
	}
	if g := req.GetGps(); g != nil {
		ev.GPS = &models.GPSCoordinate{Lat: g.GetLat(), Lng: g.GetLng(), AccuracyM: g.GetAccuracyM()}
	}
	return s.transition(ctx, req.GetOrderId(), workflow.EventDriverConfirmsDelivery, ev)
}

// CancelOrder cancels the driver's own order.
func (s *DriverServer) CancelOrder(ctx context.Context, req *driverv1.CancelOrderRequest) (*driverv1.TransitionResponse, error) {
	return s.transition(ctx, req.GetOrderId(), workflow.EventCancel, nil)
}

// UpdateLocation records the driver's position (heartbeat).
func (s *DriverServer) UpdateLocation(ctx context.Context, req *driverv1.UpdateLocationRequest) (*driverv1.UpdateLocationResponse, error) {
	dr, err := s.resolveDriver(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Location == nil {
		return nil, status.Error(codes.InvalidArgument, "location required")
	}
	if err := s.Drivers.UpdateLocation(ctx, dr.ID, req.Location.GetLat(), req.Location.GetLng()); err != nil {
		return nil, status.Errorf(codes.Internal, "update location: %v", err)
	}
	return &driverv1.UpdateLocationResponse{}, nil
}

// ListCompletedOrders pages through the driver's delivered orders and totals
// their delivery fees for the earnings view.
func (s *DriverServer) ListCompletedOrders(ctx context.Context, req *driverv1.ListCompletedOrdersRequest) (*driverv1.ListCompletedOrdersResponse, error) {
	dr, err := s.resolveDriver(ctx)
	if err != nil {
		return nil, err
	}
	size := int(req.GetPageSize())
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	var afterSec, afterID int64
	if req.GetPageToken() != "" {
		if err := decodeCursor(req.GetPageToken(), &afterSec, &afterID); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid page_token: %v", err)
		}
	}
	list, err := s.Orders.ListDeliveredByDriver(ctx, dr.ID, size, afterSec, afterID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list delivered: %v", err)
	}
	total, err := s.Orders.SumDeliveredFees(ctx, dr.ID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "sum fees: %v", err)
	}
	resp := &driverv1.ListCompletedOrdersResponse{TotalDeliveryFees: total}
	var lastSec, lastID int64
	for i := range list {
		resp.Orders = append(resp.Orders, toProtoOrder(&list[i]))
		if sec, err := timestampToUnixSeconds(list[i].UpdatedAt); err == nil {
			lastSec = sec
			lastID = list[i].ID
		}
	}
	if len(list) == size && lastID != 0 {
		resp.NextPageToken = encodeCursor(lastSec, lastID)
	}
	return resp, nil
}
