//go:build grpcserver

package grpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	driverv1 "driverDeliveryWorkflow/api/driver/v1"
	operatorv1 "driverDeliveryWorkflow/api/operator/v1"
	"driverDeliveryWorkflow/internal/auth"
	"driverDeliveryWorkflow/models"
	"driverDeliveryWorkflow/repository"
	"driverDeliveryWorkflow/workflow"
)

// OperatorServer implements operator.v1.OperatorService.
type OperatorServer struct {
	operatorv1.UnimplementedOperatorServiceServer
	Engine    *workflow.Engine
	Orders    *repository.OrderRepository
	Drivers   *repository.DriverRepository
	Operators *repository.OperatorRepository
}

// CreateOrder places a new order into the ready pool.
func (s *OperatorServer) CreateOrder(ctx context.Context, req *operatorv1.CreateOrderRequest) (*operatorv1.CreateOrderResponse, error) {
	if _, err := auth.RequireOperator(ctx, s.Operators); err != nil {
		return nil, err
	}
	if req.GetVendorId() == 0 || req.GetCustomerId() == 0 {
		return nil, status.Error(codes.InvalidArgument, "vendor_id and customer_id are required")
	}
	o := &models.Order{
		VendorID:    req.GetVendorId(),
		CustomerID:  req.GetCustomerId(),
		TotalAmount: req.GetTotalAmount(),
		DeliveryFee: req.GetDeliveryFee(),
	}
	if v := req.GetVendorLocation(); v != nil {
		o.VendorLat, o.VendorLng = v.GetLat(), v.GetLng()
	}
	if d := req.GetDropoffLocation(); d != nil {
		o.DropoffLat, o.DropoffLng = d.GetLat(), d.GetLng()
	}
	for _, it := range req.GetItems() {
		o.Items = append(o.Items, models.OrderItem{
			Name:      it.GetName(),
			Quantity:  int(it.GetQuantity()),
			UnitPrice: it.GetUnitPrice(),
		})
	}
	created, err := s.Orders.Create(ctx, o)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create order: %v", err)
	}
	return &operatorv1.CreateOrderResponse{Order: toProtoOrder(created)}, nil
}

// GetOrder fetches a single order.
func (s *OperatorServer) GetOrder(ctx context.Context, req *operatorv1.GetOrderRequest) (*operatorv1.GetOrderResponse, error) {
	if _, err := auth.RequireOperator(ctx, s.Operators); err != nil {
		return nil, err
	}
	ord, err := s.Orders.GetByID(ctx, req.GetOrderId())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get order: %v", err)
	}
	if ord == nil {
		return nil, status.Error(codes.NotFound, "order not found")
	}
	return &operatorv1.GetOrderResponse{Order: toProtoOrder(ord)}, nil
}

// ListOrders lists orders with optional filters and cursor pagination.
func (s *OperatorServer) ListOrders(ctx context.Context, req *operatorv1.ListOrdersRequest) (*operatorv1.ListOrdersResponse, error) {
	if _, err := auth.RequireOperator(ctx, s.Operators); err != nil {
		return nil, err
	}
	if req == nil {
		req = &operatorv1.ListOrdersRequest{}
	}
	size := int(req.GetPageSize())
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	var afterSec, afterID int64
	if strings.TrimSpace(req.GetPageToken()) != "" {
		if err := decodeCursor(req.GetPageToken(), &afterSec, &afterID); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid page_token: %v", err)
		}
	}

	var statuses []models.DeliveryStatus
	for _, st := range req.GetStatusFilter() {
		if ms, ok := fromProtoStatus(st); ok {
			statuses = append(statuses, ms)
		}
	}
	var vendorID, driverID *int64
	if req.VendorId != nil {
		v := req.GetVendorId()
		vendorID = &v
	}
	if req.DriverId != nil {
		v := req.GetDriverId()
		driverID = &v
	}
	var from, to *string
	if req.CreatedFrom != nil {
		v := strings.TrimSpace(req.GetCreatedFrom())
		if v != "" {
			from = &v
		}
	}
	if req.CreatedTo != nil {
		v := strings.TrimSpace(req.GetCreatedTo())
		if v != "" {
			to = &v
		}
	}

	list, err := s.Orders.ListAdmin(ctx, repository.ListOrdersAdminParams{
		Statuses:     statuses,
		VendorID:     vendorID,
		DriverID:     driverID,
		CreatedFrom:  from,
		CreatedTo:    to,
		PageSize:     size,
		AfterSeconds: afterSec,
		AfterID:      afterID,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list orders: %v", err)
	}
	resp := &operatorv1.ListOrdersResponse{}
	resp.Orders = make([]*driverv1.Order, 0, len(list))
	var lastSec, lastID int64
	for i := range list {
		resp.Orders = append(resp.Orders, toProtoOrder(&list[i]))
		if sec, err := timestampToUnixSeconds(list[i].CreatedAt); err == nil {
			lastSec = sec
			lastID = list[i].ID
		}
	}
	if len(list) == size && lastID != 0 {
		resp.NextPageToken = encodeCursor(lastSec, lastID)
	}
	return resp, nil
}

// ReleaseOrder clears a driver's assignment so the order can be reassigned.
func (s *OperatorServer) ReleaseOrder(ctx context.Context, req *operatorv1.ReleaseOrderRequest) (*operatorv1.ReleaseOrderResponse, error) {
	if _, err := auth.RequireOperator(ctx, s.Operators); err != nil {
		return nil, err
	}
	if req.GetOrderId() == 0 || req.GetDriverId() == 0 {
		return nil, status.Error(codes.InvalidArgument, "order_id and driver_id are required")
	}
	if err := s.Engine.ReleaseOrder(ctx, req.GetOrderId(), req.GetDriverId()); err != nil {
		return nil, statusFromWorkflowErr(err)
	}
	ord, err := s.Orders.GetByID(ctx, req.GetOrderId())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get order: %v", err)
	}
	return &operatorv1.ReleaseOrderResponse{Order: toProtoOrder(ord)}, nil
}

// CancelOrder cancels any non-terminal order, regardless of its holder.
func (s *OperatorServer) CancelOrder(ctx context.Context, req *operatorv1.CancelOrderRequest) (*operatorv1.CancelOrderResponse, error) {
	if _, err := auth.RequireOperator(ctx, s.Operators); err != nil {
		return nil, err
	}
	st, err := s.Engine.CancelByOperator(ctx, req.GetOrderId())
	if err != nil {
		return nil, statusFromWorkflowErr(err)
	}
	return &operatorv1.CancelOrderResponse{Status: toProtoStatus(st)}, nil
}

// CreateDriver registers a new driver.
func (s *OperatorServer) CreateDriver(ctx context.Context, req *operatorv1.CreateDriverRequest) (*operatorv1.CreateDriverResponse, error) {
	if _, err := auth.RequireOperator(ctx, s.Operators); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.GetName()) == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	d, err := s.Drivers.Create(ctx, &models.Driver{Name: req.GetName(), Phone: req.GetPhone()})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create driver: %v", err)
	}
	return &operatorv1.CreateDriverResponse{Driver: toProtoDriver(d)}, nil
}

// ListDrivers lists the fleet with filters and keyset pagination by id.
func (s *OperatorServer) ListDrivers(ctx context.Context, req *operatorv1.ListDriversRequest) (*operatorv1.ListDriversResponse, error) {
	if _, err := auth.RequireOperator(ctx, s.Operators); err != nil {
		return nil, err
	}
	if req == nil {
		req = &operatorv1.ListDriversRequest{}
	}
	size := int(req.GetPageSize())
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	var afterID int64
	if strings.TrimSpace(req.GetPageToken()) != "" {
		id, err := decodeIDCursor(req.GetPageToken())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid page_token: %v", err)
		}
		afterID = id
	}
	var st *models.DriverStatus
	switch req.GetStatus() {
	case operatorv1.DriverStatus_ACTIVE:
		v := models.DriverStatusActive
		st = &v
	case operatorv1.DriverStatus_OFFLINE:
		v := models.DriverStatusOffline
		st = &v
	}
	var nameContains *string
	if req.NameContains != nil {
		v := strings.TrimSpace(req.GetNameContains())
		if v != "" {
			nameContains = &v
		}
	}
	list, err := s.Drivers.ListAdmin(ctx, repository.ListDriversAdminParams{
		Status:       st,
		NameContains: nameContains,
		PageSize:     size,
		AfterID:      afterID,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list drivers: %v", err)
	}
	resp := &operatorv1.ListDriversResponse{}
	var last int64
	for i := range list {
		resp.Drivers = append(resp.Drivers, toProtoDriver(&list[i]))
		last = list[i].ID
	}
	if len(list) == size && last != 0 {
		resp.NextPageToken = encodeIDCursor(last)
	}
	return resp, nil
}

func toProtoDriver(d *models.Driver) *operatorv1.Driver {
	if d == nil {
		return nil
	}
	out := &operatorv1.Driver{
		Id:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		Location:  &driverv1.Coordinates{Lat: d.Lat, Lng: d.Lng},
		CreatedAt: d.CreatedAt,
	}
	switch d.Status {
	case models.DriverStatusActive:
		out.Status = operatorv1.DriverStatus_ACTIVE
	case models.DriverStatusOffline:
		out.Status = operatorv1.DriverStatus_OFFLINE
	default:
		out.Status = operatorv1.DriverStatus_DRIVER_STATUS_UNSPECIFIED
	}
	return out
}
