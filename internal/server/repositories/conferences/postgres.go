package conferences

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

const conferenceColumns = `id, name, description, field, location, city, country, start_date, end_date, organizer_id,
		max_attendees, registration_fee, status, logo, banner, website, attendees, created_at, updated_at`

// registerAttempts bounds the retries when a conditional append loses a race
// that the follow-up read can no longer explain.
const registerAttempts = 3

func (r *PostgresRepository) Create(ctx context.Context, c *models.Conference) (*models.Conference, error) {
	query :=
		`INSERT INTO conferences (id, name, description, field, location, city, country, start_date, end_date,
		 organizer_id, max_attendees, registration_fee, status, logo, banner, website, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 `

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Description, c.Field, c.Location, c.City, c.Country, c.StartDate, c.EndDate,
		c.OrganizerID, c.MaxAttendees, c.RegistrationFee, c.Status, c.Logo, c.Banner, c.Website, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		if dbx.IsCheckViolation(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrorValidation, dbx.ConstraintName(err))
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if c.Attendees == nil {
		c.Attendees = []string{}
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Conference, error) {
	return r.getOne(ctx, `SELECT `+conferenceColumns+` FROM conferences WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Conference, error) {
	return r.getOne(ctx, `SELECT `+conferenceColumns+` FROM conferences WHERE name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Conference, error) {
	c, err := scanConference(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Conference, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+conferenceColumns+` FROM conferences ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Conference{}
	for rows.Next() {
		c, err := scanConference(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Conference) error {
	query :=
		`UPDATE conferences SET name = $2, description = $3, field = $4, location = $5, city = $6, country = $7,
		 start_date = $8, end_date = $9, max_attendees = $10, registration_fee = $11, status = $12,
		 logo = $13, banner = $14, website = $15, updated_at = $16
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Description, c.Field, c.Location, c.City, c.Country, c.StartDate, c.EndDate,
		c.MaxAttendees, c.RegistrationFee, c.Status, c.Logo, c.Banner, c.Website, c.UpdatedAt)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return ErrDuplicateName
		case dbx.ConstraintName(err) == "conferences_capacity_check":
			return common.ErrCapacityFull
		case dbx.IsCheckViolation(err):
			return fmt.Errorf("%w: %s", common.ErrorValidation, dbx.ConstraintName(err))
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conferences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) AddAttendee(ctx context.Context, id, userID string) error {
	query :=
		`UPDATE conferences SET attendees = array_append(attendees, $2), updated_at = now()
		 WHERE id = $1 AND NOT ($2 = ANY(attendees)) AND cardinality(attendees) < max_attendees
		 `

	for range registerAttempts {
		res, err := r.db.ExecContext(ctx, query, id, userID)
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
			`SELECT $2 = ANY(attendees), cardinality(attendees) >= max_attendees FROM conferences WHERE id = $1`,
			id, userID).Scan(&registered, &full)
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

func (r *PostgresRepository) RemoveAttendee(ctx context.Context, id, userID string) error {
	query :=
		`UPDATE conferences SET attendees = array_remove(attendees, $2), updated_at = now()
		 WHERE id = $1 AND $2 = ANY(attendees)
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID)
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
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM conferences WHERE id = $1)`, id).Scan(&exists)
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

func scanConference(row scanner) (*models.Conference, error) {
	c := &models.Conference{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Field, &c.Location, &c.City, &c.Country,
		&c.StartDate, &c.EndDate, &c.OrganizerID, &c.MaxAttendees, &c.RegistrationFee, &c.Status,
		&c.Logo, &c.Banner, &c.Website, dbx.TextArray(&c.Attendees), &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
