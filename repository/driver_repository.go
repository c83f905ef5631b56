package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"driverDeliveryWorkflow/models"
)

type DriverRepository struct {
	db *sql.DB
}

func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// Create inserts a new driver. Status defaults to 'offline' if empty.
func (r *DriverRepository) Create(ctx context.Context, d *models.Driver) (*models.Driver, error) {
	if d == nil {
		return nil, errors.New("driver is nil")
	}
	if d.Status == "" {
		d.Status = models.DriverStatusOffline
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO drivers (name, phone, lat, lng, status) VALUES (?,?,?,?,?)`,
		d.Name, d.Phone, d.Lat, d.Lng, string(d.Status))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *DriverRepository) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.getOne(ctx, `SELECT id, name, phone, lat, lng, status, created_at FROM drivers WHERE id = ?`, id)
}

func (r *DriverRepository) GetByName(ctx context.Context, name string) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.getOne(ctx, `SELECT id, name, phone, lat, lng, status, created_at FROM drivers WHERE name = ?`, name)
}

func (r *DriverRepository) getOne(ctx context.Context, query string, arg any) (*models.Driver, error) {
	var d models.Driver
	var status string
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&d.ID, &d.Name, &d.Phone, &d.Lat, &d.Lng, &status, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.Status = models.DriverStatus(status)
	return &d, nil
}

func (r *DriverRepository) UpdateStatus(ctx context.Context, id int64, status models.DriverStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE drivers SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// UpdateLocation records the driver's last reported position (heartbeat).
func (r *DriverRepository) UpdateLocation(ctx context.Context, id int64, lat, lng float64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE drivers SET lat = ?, lng = ? WHERE id = ?`, lat, lng, id)
	return err
}

func (r *DriverRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, id)
	return err
}

// ListDriversAdminParams contains filters and pagination for fleet listings.
type ListDriversAdminParams struct {
	Status       *models.DriverStatus
	NameContains *string
	PageSize     int
	AfterID      int64
}

// ListAdmin returns drivers matching filters ordered by id asc with keyset pagination by id.
func (r *DriverRepository) ListAdmin(ctx context.Context, p ListDriversAdminParams) ([]models.Driver, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if p.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.NameContains != nil && strings.TrimSpace(*p.NameContains) != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+strings.TrimSpace(*p.NameContains)+"%")
	}
	if p.AfterID > 0 {
		where = append(where, "id > ?")
		args = append(args, p.AfterID)
	}

	query := "SELECT id, name, phone, lat, lng, status, created_at FROM drivers"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Driver
	for rows.Next() {
		var d models.Driver
		var status string
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Lat, &d.Lng, &status, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Status = models.DriverStatus(status)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
