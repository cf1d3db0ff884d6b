package sessions

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

const sessionColumns = `id, title, description, speaker, start_time, end_time, location, capacity, attendees,
		conference_id, created_at, updated_at`

const registerAttempts = 3

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	query :=
		`INSERT INTO sessions (id, title, description, speaker, start_time, end_time, location, capacity,
		 conference_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 `

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Title, s.Description, s.Speaker, s.StartTime, s.EndTime, s.Location, s.Capacity,
		s.ConferenceID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if dbx.IsCheckViolation(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrorValidation, dbx.ConstraintName(err))
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if s.Attendees == nil {
		s.Attendees = []string{}
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByConference(ctx context.Context, conferenceID string) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE conference_id = $1 ORDER BY start_time`, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Session) error {
	query :=
		`UPDATE sessions SET title = $2, description = $3, speaker = $4, start_time = $5, end_time = $6,
		 location = $7, capacity = $8, updated_at = $9
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		s.ID, s.Title, s.Description, s.Speaker, s.StartTime, s.EndTime, s.Location, s.Capacity, s.UpdatedAt)
	if err != nil {
		if dbx.IsCheckViolation(err) {
			if dbx.ConstraintName(err) == "sessions_capacity_check" {
				return common.ErrCapacityFull
			}
			return fmt.Errorf("%w: %s", common.ErrorValidation, dbx.ConstraintName(err))
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) AddAttendee(ctx context.Context, id, attendeeID string) error {
	query :=
		`UPDATE sessions SET attendees = array_append(attendees, $2), updated_at = now()
		 WHERE id = $1 AND NOT ($2 = ANY(attendees)) AND cardinality(attendees) < capacity
		 `

	for range registerAttempts {
		res, err := r.db.ExecContext(ctx, query, id, attendeeID)
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

		var registered, full bool
		err = r.db.QueryRowContext(ctx,
			`SELECT $2 = ANY(attendees), cardinality(attendees) >= capacity FROM sessions WHERE id = $1`,
			id, attendeeID).Scan(&registered, &full)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}
		switch {
		case registered:
			return ErrAlreadyRegistered
		case full:
			return common.ErrCapacityFull
		}
	}
	return common.ErrCapacityFull
}

func (r *PostgresRepository) RemoveAttendee(ctx context.Context, id, attendeeID string) error {
	query :=
		`UPDATE sessions SET attendees = array_remove(attendees, $2), updated_at = now()
		 WHERE id = $1 AND $2 = ANY(attendees)
		 `

	res, err := r.db.ExecContext(ctx, query, id, attendeeID)
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
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrNotRegistered
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Speaker, &s.StartTime, &s.EndTime, &s.Location,
		&s.Capacity, dbx.TextArray(&s.Attendees), &s.ConferenceID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
