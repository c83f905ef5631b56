package repository

import (
	"context"

	"driverDeliveryWorkflow/models"
)

// OperatorRepositoryI defines operations on Operator accounts.
type OperatorRepositoryI interface {
	Create(ctx context.Context, username string) (*models.Operator, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
	GetByID(ctx context.Context, id int64) (*models.Operator, error)
	List(ctx context.Context, limit, offset int) ([]*models.Operator, error)
}

// DriverRepositoryI defines operations on Driver entities.
type DriverRepositoryI interface {
	Create(ctx context.Context, d *models.Driver) (*models.Driver, error)
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	GetByName(ctx context.Context, name string) (*models.Driver, error)
	UpdateStatus(ctx context.Context, id int64, status models.DriverStatus) error
	UpdateLocation(ctx context.Context, id int64, lat, lng float64) error
	ListAdmin(ctx context.Context, p ListDriversAdminParams) ([]models.Driver, error)
}

// OrderRepositoryI defines operations on Order entities. AssignDriver,
// ClearAssignment, and UpdateStatusFrom are conditional writes: they report
// whether the row matched, never read-modify-write.
type OrderRepositoryI interface {
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	AssignDriver(ctx context.Context, orderID, driverID int64) (bool, error)
	ClearAssignment(ctx context.Context, orderID, driverID int64) (bool, error)
	UpdateStatusFrom(ctx context.Context, orderID int64, from, to models.DeliveryStatus) (bool, error)
	FindByAssignedDriver(ctx context.Context, driverID int64) (*models.Order, error)
	ListAvailable(ctx context.Context, limit int) ([]models.Order, error)
	ListAdmin(ctx context.Context, p ListOrdersAdminParams) ([]models.Order, error)
	ListDeliveredByDriver(ctx context.Context, driverID int64, pageSize int, afterSeconds, afterID int64) ([]models.Order, error)
	SumDeliveredFees(ctx context.Context, driverID int64) (float64, error)
}

// ConfirmationRepositoryI defines operations on the append-only evidence records.
type ConfirmationRepositoryI interface {
	CreatePickup(ctx context.Context, c *models.PickupConfirmation) error
	CreateDelivery(ctx context.Context, c *models.DeliveryConfirmation) error
	GetPickup(ctx context.Context, orderID int64) (*models.PickupConfirmation, error)
	GetDelivery(ctx context.Context, orderID int64) (*models.DeliveryConfirmation, error)
	Exists(ctx context.Context, orderID int64, kind models.ConfirmationKind) (bool, error)
}
