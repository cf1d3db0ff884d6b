package attendees

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

const attendeeColumns = `id, name, email, phone, company, registered_sessions, registration_date, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attendee) (*models.Attendee, error) {
	query :=
		`INSERT INTO attendees (id, name, email, phone, company, registration_date, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.Email, a.Phone, a.Company, a.RegistrationDate, a.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if a.RegisteredSessions == nil {
		a.RegisteredSessions = []string{}
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Attendee, error) {
	return r.getOne(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Attendee, error) {
	return r.getOne(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE email = $1`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Attendee, error) {
	a, err := scanAttendee(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Attendee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+attendeeColumns+` FROM attendees ORDER BY registration_date`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Attendee{}
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) AddSession(ctx context.Context, id, sessionID string) error {
	return r.touchSessions(ctx,
		`UPDATE attendees SET registered_sessions = array_append(registered_sessions, $2), updated_at = now()
		 WHERE id = $1 AND NOT ($2 = ANY(registered_sessions))
		 `, id, sessionID)
}

func (r *PostgresRepository) RemoveSession(ctx context.Context, id, sessionID string) error {
	return r.touchSessions(ctx,
		`UPDATE attendees SET registered_sessions = array_remove(registered_sessions, $2), updated_at = now()
		 WHERE id = $1 AND $2 = ANY(registered_sessions)
		 `, id, sessionID)
}

// touchSessions runs a conditional list update. Zero affected rows is fine
// as long as the attendee exists.
func (r *PostgresRepository) touchSessions(ctx context.Context, query, id, sessionID string) error {
	res, err := r.db.ExecContext(ctx, query, id, sessionID)
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
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM attendees WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row scanner) (*models.Attendee, error) {
	a := &models.Attendee{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Company, dbx.TextArray(&a.RegisteredSessions),
		&a.RegistrationDate, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
