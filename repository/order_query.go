package repository

import (
	"context"
	"strings"
	"time"

	"driverDeliveryWorkflow/models"
)

// ListOrdersAdminParams represents filters and pagination for ListAdmin.
type ListOrdersAdminParams struct {
	Statuses    []models.DeliveryStatus
	VendorID    *int64
	DriverID    *int64
	CreatedFrom *string // optional inclusive lower bound on created_at
	CreatedTo   *string // optional inclusive upper bound on created_at
	PageSize    int
	// Keyset cursor: created_at unix seconds plus order id.
	AfterSeconds int64
	AfterID      int64
}

// ListAdmin returns orders matching filters ordered by created_at desc, id desc
// with keyset pagination.
func (r *OrderRepository) ListAdmin(ctx context.Context, p ListOrdersAdminParams) ([]models.Order, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any

	if len(p.Statuses) > 0 {
		placeholders := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if p.VendorID != nil {
		where = append(where, "vendor_id = ?")
		args = append(args, *p.VendorID)
	}
	if p.DriverID != nil {
		where = append(where, "assigned_driver_id = ?")
		args = append(args, *p.DriverID)
	}
	if p.CreatedFrom != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *p.CreatedFrom)
	}
	if p.CreatedTo != nil {
		where = append(where, "created_at <= ?")
		args = append(args, *p.CreatedTo)
	}
	if p.AfterSeconds > 0 && p.AfterID > 0 {
		// Keyset pagination using numeric time to avoid string-format pitfalls.
		where = append(where, "(CAST(strftime('%s', created_at) AS INTEGER) < ? OR (CAST(strftime('%s', created_at) AS INTEGER) = ? AND id < ?))")
		args = append(args, p.AfterSeconds, p.AfterSeconds, p.AfterID)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}

// ListDeliveredByDriver returns a page of delivered orders for a driver,
// newest first, with a keyset cursor. Feeds the order-history and earnings views.
func (r *OrderRepository) ListDeliveredByDriver(ctx context.Context, driverID int64, pageSize int, afterSeconds, afterID int64) ([]models.Order, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where := "assigned_driver_id = ? AND status = ?"
	args := []any{driverID, string(models.StatusDelivered)}
	if afterSeconds > 0 && afterID > 0 {
		where += ` AND (CAST(strftime('%s', updated_at) AS INTEGER) < ? OR (CAST(strftime('%s', updated_at) AS INTEGER) = ? AND id < ?))`
		args = append(args, afterSeconds, afterSeconds, afterID)
	}
	args = append(args, pageSize)

	rows, err := r.db.QueryContext(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE `+where+`
ORDER BY updated_at DESC, id DESC
LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}

// SumDeliveredFees totals the delivery fees of a driver's delivered orders.
func (r *OrderRepository) SumDeliveredFees(ctx context.Context, driverID int64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var total float64
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(delivery_fee), 0) FROM orders
WHERE assigned_driver_id = ? AND status = ?`,
		driverID, string(models.StatusDelivered)).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
