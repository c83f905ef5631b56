package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"

	"driverDeliveryWorkflow/models"
)

// ErrDuplicateConfirmation is returned when an evidence record of the same
// kind already exists for the order. Confirmations are append-only; a prior
// record is never overwritten.
var ErrDuplicateConfirmation = errors.New("confirmation already recorded for this order")

// ConfirmationRepository persists the append-only evidence records backing
// the two mandatory workflow gates.
type ConfirmationRepository struct {
	db *sql.DB
}

func NewConfirmationRepository(db *sql.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

// CreatePickup inserts a pickup evidence record. The UNIQUE(order_id, kind)
// constraint rejects a second record; that case maps to ErrDuplicateConfirmation.
func (r *ConfirmationRepository) CreatePickup(ctx context.Context, c *models.PickupConfirmation) error {
	if c == nil {
		return errors.New("confirmation is nil")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	checklist, err := json.Marshal(c.Checklist)
	if err != nil {
		return pkgerrors.Wrap(err, "encode checklist")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO confirmations (id, order_id, kind, confirmed_by, checklist, notes)
VALUES (?,?,?,?,?,?)`,
		c.ID, c.OrderID, string(models.ConfirmationKindPickup), c.ConfirmedBy, string(checklist), c.Notes)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

// CreateDelivery inserts a delivery evidence record.
func (r *ConfirmationRepository) CreateDelivery(ctx context.Context, c *models.DeliveryConfirmation) error {
	if c == nil {
		return errors.New("confirmation is nil")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO confirmations (id, order_id, kind, confirmed_by, photo_ref, gps_lat, gps_lng, gps_accuracy_m, recipient_note, distance_to_dropoff_m)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.OrderID, string(models.ConfirmationKindDelivery), c.ConfirmedBy,
		c.PhotoRef, c.GPS.Lat, c.GPS.Lng, c.GPS.AccuracyM, c.RecipientNote, c.DistanceToDropoffM)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

// GetPickup fetches the pickup confirmation for an order, or nil.
func (r *ConfirmationRepository) GetPickup(ctx context.Context, orderID int64) (*models.PickupConfirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var c models.PickupConfirmation
	var checklist sql.NullString
	err := r.db.QueryRowContext(ctx, `
SELECT id, order_id, confirmed_by, confirmed_at, checklist, notes
FROM confirmations WHERE order_id = ? AND kind = ?`,
		orderID, string(models.ConfirmationKindPickup)).
		Scan(&c.ID, &c.OrderID, &c.ConfirmedBy, &c.ConfirmedAt, &checklist, &c.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if checklist.Valid && checklist.String != "" {
		if err := json.Unmarshal([]byte(checklist.String), &c.Checklist); err != nil {
			return nil, pkgerrors.Wrap(err, "decode checklist")
		}
	}
	return &c, nil
}

// GetDelivery fetches the delivery confirmation for an order, or nil.
func (r *ConfirmationRepository) GetDelivery(ctx context.Context, orderID int64) (*models.DeliveryConfirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var c models.DeliveryConfirmation
	var lat, lng, acc, dist sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
SELECT id, order_id, confirmed_by, confirmed_at, photo_ref, gps_lat, gps_lng, gps_accuracy_m, recipient_note, distance_to_dropoff_m
FROM confirmations WHERE order_id = ? AND kind = ?`,
		orderID, string(models.ConfirmationKindDelivery)).
		Scan(&c.ID, &c.OrderID, &c.ConfirmedBy, &c.ConfirmedAt, &c.PhotoRef, &lat, &lng, &acc, &c.RecipientNote, &dist)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lat.Valid {
		c.GPS.Lat = lat.Float64
	}
	if lng.Valid {
		c.GPS.Lng = lng.Float64
	}
	if acc.Valid {
		c.GPS.AccuracyM = acc.Float64
	}
	if dist.Valid {
		c.DistanceToDropoffM = dist.Float64
	}
	return &c, nil
}

// Exists reports whether an evidence record of the given kind exists for the order.
func (r *ConfirmationRepository) Exists(ctx context.Context, orderID int64, kind models.ConfirmationKind) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM confirmations WHERE order_id = ? AND kind = ?`,
		orderID, string(kind)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func mapConstraintErr(err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		if serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return ErrDuplicateConfirmation
		}
	}
	return pkgerrors.Wrap(err, "insert confirmation")
}
