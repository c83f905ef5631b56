package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"driverDeliveryWorkflow/models"
)

type OperatorRepository struct {
	db *sql.DB
}

func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

func (r *OperatorRepository) Create(ctx context.Context, username string) (*models.Operator, error) {
	if username == "" {
		return nil, errors.New("username is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO operators (username) VALUES (?)`, username)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Operator{ID: id, Username: username}, nil
}

func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var op models.Operator
	err := r.db.QueryRowContext(ctx, `SELECT id, username FROM operators WHERE username = ?`, username).
		Scan(&op.ID, &op.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

func (r *OperatorRepository) GetByID(ctx context.Context, id int64) (*models.Operator, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var op models.Operator
	err := r.db.QueryRowContext(ctx, `SELECT id, username FROM operators WHERE id = ?`, id).
		Scan(&op.ID, &op.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

func (r *OperatorRepository) List(ctx context.Context, limit, offset int) ([]*models.Operator, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, username FROM operators ORDER BY id ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Operator
	for rows.Next() {
		var op models.Operator
		if err := rows.Scan(&op.ID, &op.Username); err != nil {
			return nil, err
		}
		out = append(out, &op)
	}
	return out, rows.Err()
}
