package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/dbx"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const paymentColumns = `id, user_id, conference_id, conference_name, amount, status, transaction_id, refund_id,
		refund_reason, created_at, processed_at`

func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) error {
	query :=
		`INSERT INTO payments (id, user_id, conference_id, conference_name, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.ConferenceID, p.ConferenceName, p.Amount, p.Status, p.CreatedAt)
	if err != nil {
		if dbx.IsCheckViolation(err) {
			return fmt.Errorf("%w: %s", common.ErrorValidation, dbx.ConstraintName(err))
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Payment, from string) error {
	query :=
		`UPDATE payments SET status = $2, transaction_id = $3, refund_id = $4, refund_reason = $5, processed_at = $6
		 WHERE id = $1 AND status = $7
		 `

	var processed sql.NullTime
	if p.ProcessedAt != nil {
		processed = sql.NullTime{Time: *p.ProcessedAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, p.ID, p.Status, p.TransactionID, p.RefundID, p.RefundReason, processed, from)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, p.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrVersionConflict
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*models.Payment, error) {
	p := &models.Payment{}
	var processed sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.ConferenceID, &p.ConferenceName, &p.Amount, &p.Status,
		&p.TransactionID, &p.RefundID, &p.RefundReason, &p.CreatedAt, &processed)
	if err != nil {
		return nil, err
	}
	if processed.Valid {
		t := processed.Time
		p.ProcessedAt = &t
	}
	return p, nil
}
