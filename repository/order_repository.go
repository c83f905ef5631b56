package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"driverDeliveryWorkflow/models"
)

// OrderRepository is the core repository for Order entities. The assignment
// and status columns are only ever touched through conditional writes here;
// nothing else in the module writes them.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_number, vendor_id, customer_id, total_amount, delivery_fee, vendor_lat, vendor_lng, dropoff_lat, dropoff_lng, assigned_driver_id, status, created_at, updated_at`

// Create inserts a new order together with its line items.
// Status defaults to 'ready' and the order number to a fresh UUID.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	if o.Status == "" {
		o.Status = models.StatusReady
	}
	if o.OrderNumber == "" {
		o.OrderNumber = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO orders (order_number, vendor_id, customer_id, total_amount, delivery_fee, vendor_lat, vendor_lng, dropoff_lat, dropoff_lng, status) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		o.OrderNumber, o.VendorID, o.CustomerID, o.TotalAmount, o.DeliveryFee, o.VendorLat, o.VendorLng, o.DropoffLat, o.DropoffLng, string(o.Status))
	if err != nil {
		_ = tx.Rollback()
		return nil, pkgerrors.Wrap(err, "insert order")
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, `INSERT INTO order_items (order_id, name, quantity, unit_price) VALUES (?,?,?,?)`,
			id, it.Name, it.Quantity, it.UnitPrice); err != nil {
			_ = tx.Rollback()
			return nil, pkgerrors.Wrap(err, "insert order item")
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches an order and its line items by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err != nil || o == nil {
		return o, err
	}
	o.Items, err = r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// AssignDriver atomically claims an unassigned, ready order for a driver.
// This single conditional UPDATE is the concurrency control point for the
// acceptance race: exactly one of N concurrent attempts matches the row.
// It returns false when another driver already holds the order or the order
// is no longer ready.
func (r *OrderRepository) AssignDriver(ctx context.Context, orderID, driverID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET assigned_driver_id = ?, status = ?, updated_at = (CURRENT_TIMESTAMP)
WHERE id = ? AND assigned_driver_id IS NULL AND status = ?`,
		driverID, string(models.StatusAssigned), orderID, string(models.StatusReady))
	if err != nil {
		return false, pkgerrors.Wrap(err, "assign driver")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearAssignment releases an order back to the ready pool, only when the
// given driver is the current holder and the order is not terminal.
func (r *OrderRepository) ClearAssignment(ctx context.Context, orderID, driverID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET assigned_driver_id = NULL, status = ?, updated_at = (CURRENT_TIMESTAMP)
WHERE id = ? AND assigned_driver_id = ? AND status NOT IN (?, ?)`,
		string(models.StatusReady), orderID, driverID,
		string(models.StatusDelivered), string(models.StatusCancelled))
	if err != nil {
		return false, pkgerrors.Wrap(err, "clear assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatusFrom advances the status with a compare-and-swap on the
// previous value. A false return means the order was not in `from` anymore;
// the caller decides whether that is a lost race or an invalid request.
func (r *OrderRepository) UpdateStatusFrom(ctx context.Context, orderID int64, from, to models.DeliveryStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status = ?, updated_at = (CURRENT_TIMESTAMP)
WHERE id = ? AND status = ?`,
		string(to), orderID, string(from))
	if err != nil {
		return false, pkgerrors.Wrap(err, "update status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByAssignedDriver returns the active (non-terminal) order held by a driver, if any.
func (r *OrderRepository) FindByAssignedDriver(ctx context.Context, driverID int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE assigned_driver_id = ? AND status NOT IN (?, ?)
ORDER BY updated_at DESC, id DESC LIMIT 1`,
		driverID, string(models.StatusDelivered), string(models.StatusCancelled))
	o, err := scanOrder(row)
	if err != nil || o == nil {
		return o, err
	}
	o.Items, err = r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListAvailable returns unassigned ready orders, oldest first.
func (r *OrderRepository) ListAvailable(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE assigned_driver_id IS NULL AND status = ?
ORDER BY created_at ASC, id ASC LIMIT ?`,
		string(models.StatusReady), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// loadItems fetches the line items of an order in insertion order.
func (r *OrderRepository) loadItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, name, quantity, unit_price FROM order_items WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var status string
	var assigned sql.NullInt64
	err := row.Scan(&o.ID, &o.OrderNumber, &o.VendorID, &o.CustomerID, &o.TotalAmount, &o.DeliveryFee,
		&o.VendorLat, &o.VendorLng, &o.DropoffLat, &o.DropoffLng, &assigned, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if assigned.Valid {
		v := assigned.Int64
		o.AssignedDriverID = &v
	}
	o.Status = models.DeliveryStatus(status)
	return &o, nil
}

func scanOrderRows(rows *sql.Rows) ([]models.Order, error) {
	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
