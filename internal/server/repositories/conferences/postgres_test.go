package conferences

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var (
	start   = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	end     = time.Date(2025, 6, 3, 18, 0, 0, 0, time.UTC)
	columns = []string{"id", "name", "description", "field", "location", "city", "country", "start_date", "end_date",
		"organizer_id", "max_attendees", "registration_fee", "status", "logo", "banner", "website", "attendees",
		"created_at", "updated_at"}

	addQ      = `(?s)^UPDATE\s+conferences\s+SET\s+attendees\s*=\s*array_append\(attendees,\s*\$2\).*WHERE\s+id\s*=\s*\$1\s+AND\s+NOT\s+\(\$2\s*=\s*ANY\(attendees\)\)\s+AND\s+cardinality\(attendees\)\s*<\s*max_attendees\s*$`
	addCheckQ = `(?s)^SELECT\s+\$2\s*=\s*ANY\(attendees\),\s*cardinality\(attendees\)\s*>=\s*max_attendees\s+FROM\s+conferences\s+WHERE\s+id\s*=\s*\$1$`
	removeQ   = `(?s)^UPDATE\s+conferences\s+SET\s+attendees\s*=\s*array_remove\(attendees,\s*\$2\).*WHERE\s+id\s*=\s*\$1\s+AND\s+\$2\s*=\s*ANY\(attendees\)\s*$`
	existsQ   = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+conferences\s+WHERE\s+id\s*=\s*\$1\)$`
)

func sampleConference() *models.Conference {
	return &models.Conference{
		ID: "c-1", Name: "DevCon", Description: "d", Location: "Hall", StartDate: start, EndDate: end,
		OrganizerID: "u-1", MaxAttendees: 100, Status: models.StatusUpcoming, CreatedAt: start, UpdatedAt: start,
	}
}

func conferenceRow(id, name, attendees string) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(id, name, "d", "", "Hall", "", "", start, end, "u-1", 100, 0.0,
		"upcoming", "", "", "", attendees, start, start)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	c := sampleConference()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+conferences\s*\(id,\s*name,.*VALUES\s*\(\$1,.*\$18\)\s*$`).
		WithArgs(c.ID, c.Name, c.Description, c.Field, c.Location, c.City, c.Country, c.StartDate, c.EndDate,
			c.OrganizerID, c.MaxAttendees, c.RegistrationFee, c.Status, c.Logo, c.Banner, c.Website, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Attendees)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateName(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+conferences`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "conferences_name_key"})

	_, err := repo.Create(context.Background(), sampleConference())
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,.*FROM\s+conferences\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("c-1").WillReturnRows(conferenceRow("c-1", "DevCon", "{u-2,u-3}"))
	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "DevCon", got.Name)
	assert.Equal(t, []string{"u-2", "u-3"}, got.Attendees)
	assert.True(t, start.Equal(got.StartDate))

	_, err = repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByName_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+conferences\s+WHERE\s+name\s*=\s*\$1$`).
		WithArgs("DevCon").WillReturnError(errors.New("db err"))

	_, err := repo.GetByName(context.Background(), "DevCon")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList_OrderedByStart(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(columns).
		AddRow("c-1", "A", "d", "", "Hall", "", "", start, end, "u-1", 100, 0.0, "upcoming", "", "", "", "{}", start, start).
		AddRow("c-2", "B", "d", "", "Hall", "", "", end, end, "u-1", 100, 0.0, "upcoming", "", "", "", "{u-9}", start, start)
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+conferences\s+ORDER\s+BY\s+start_date$`).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-1", got[0].ID)
	assert.Equal(t, []string{}, got[0].Attendees)
	assert.Equal(t, []string{"u-9"}, got[1].Attendees)
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+conferences\s+SET\s+name\s*=\s*\$2,.*updated_at\s*=\s*\$16\s+WHERE\s+id\s*=\s*\$1\s*$`
	c := sampleConference()

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), c))

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), c), common.ErrorNotFound)

	mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, repo.Update(context.Background(), c), ErrDuplicateName)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+conferences\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "c-1"), common.ErrorNotFound)
}

func TestAddAttendee(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
		want  error
	}{
		{
			name: "appended",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(addQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "already registered",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(addQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(addCheckQ).WithArgs("c-1", "u-2").
					WillReturnRows(sqlmock.NewRows([]string{"registered", "full"}).AddRow(true, false))
			},
			want: ErrAlreadyRegistered,
		},
		{
			name: "full",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(addQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(addCheckQ).WithArgs("c-1", "u-2").
					WillReturnRows(sqlmock.NewRows([]string{"registered", "full"}).AddRow(false, true))
			},
			want: common.ErrCapacityFull,
		},
		{
			name: "missing conference",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(addQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(addCheckQ).WithArgs("c-1", "u-2").WillReturnError(sql.ErrNoRows)
			},
			want: common.ErrorNotFound,
		},
		{
			name: "lost race then appended",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(addQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(addCheckQ).WithArgs("c-1", "u-2").
					WillReturnRows(sqlmock.NewRows([]string{"registered", "full"}).AddRow(false, false))
				mock.ExpectExec(addQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()
			tt.setup(mock)

			err := repo.AddAttendee(context.Background(), "c-1", "u-2")
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRemoveAttendee(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(removeQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RemoveAttendee(context.Background(), "c-1", "u-2"))

	mock.ExpectExec(removeQ).WithArgs("c-1", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQ).WithArgs("c-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	assert.ErrorIs(t, repo.RemoveAttendee(context.Background(), "c-1", "u-2"), common.ErrNotRegistered)

	mock.ExpectExec(removeQ).WithArgs("c-9", "u-2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQ).WithArgs("c-9").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	assert.ErrorIs(t, repo.RemoveAttendee(context.Background(), "c-9", "u-2"), common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_CapacityBelowAttendees(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+conferences\s+SET\s+name`).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "conferences_capacity_check"})
	assert.ErrorIs(t, repo.Update(context.Background(), sampleConference()), common.ErrCapacityFull)

	mock.ExpectExec(`(?s)^UPDATE\s+conferences\s+SET\s+name`).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "conferences_dates_check"})
	assert.ErrorIs(t, repo.Update(context.Background(), sampleConference()), common.ErrorValidation)
}
