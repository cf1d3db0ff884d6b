package payments

import (
	"context"
	"database/sql"
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
	createdAt = time.Date(2025, 2, 2, 12, 0, 0, 0, time.UTC)
	columns   = []string{"id", "user_id", "conference_id", "conference_name", "amount", "status", "transaction_id",
		"refund_id", "refund_reason", "created_at", "processed_at"}
	updateQ = `(?s)^UPDATE\s+payments\s+SET\s+status\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*\$7\s*$`
	existsQ = `^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+payments\s+WHERE\s+id\s*=\s*\$1\)$`
)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := &models.Payment{ID: "p-1", UserID: "u-1", ConferenceID: "c-1", ConferenceName: "DevCon", Amount: 50,
		Status: models.PaymentPending, CreatedAt: createdAt}
	q := `(?s)^INSERT\s+INTO\s+payments\b.*VALUES\s*\(\$1,.*\$7\)\s*$`

	mock.ExpectExec(q).WithArgs("p-1", "u-1", "c-1", "DevCon", 50.0, "pending", createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), p))

	mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "payments_amount_check"})
	assert.ErrorIs(t, repo.Create(context.Background(), p), common.ErrorValidation)
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	processed := createdAt.Add(time.Minute)
	q := `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+payments\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("p-1").WillReturnRows(sqlmock.NewRows(columns).
		AddRow("p-1", "u-1", "c-1", "DevCon", 50.0, "completed", "TXNABCDEF012345", "", "", createdAt, processed))
	mock.ExpectQuery(q).WithArgs("p-2").WillReturnRows(sqlmock.NewRows(columns).
		AddRow("p-2", "u-1", "c-1", "DevCon", 50.0, "pending", "", "", "", createdAt, nil))
	mock.ExpectQuery(q).WithArgs("p-3").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "p-1")
	require.NoError(t, err)
	require.NotNil(t, got.ProcessedAt)
	assert.True(t, processed.Equal(*got.ProcessedAt))
	assert.Equal(t, "TXNABCDEF012345", got.TransactionID)

	got, err = repo.GetByID(context.Background(), "p-2")
	require.NoError(t, err)
	assert.Nil(t, got.ProcessedAt)

	_, err = repo.GetByID(context.Background(), "p-3")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+payments\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("p-2", "u-1", "c-1", "DevCon", 10.0, "failed", "", "", "", createdAt.Add(time.Hour), nil).
			AddRow("p-1", "u-1", "c-1", "DevCon", 10.0, "completed", "TXN1", "", "", createdAt, createdAt))

	got, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-2", got[0].ID)
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	ctx := context.Background()

	now := createdAt.Add(time.Minute)
	p := &models.Payment{ID: "p-1", Status: models.PaymentCompleted, TransactionID: "TXN1", ProcessedAt: &now}

	mock.ExpectExec(updateQ).
		WithArgs("p-1", "completed", "TXN1", "", "", now, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(ctx, p, models.PaymentPending))

	mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQ).WithArgs("p-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	assert.ErrorIs(t, repo.Update(ctx, p, models.PaymentPending), common.ErrVersionConflict)

	mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsQ).WithArgs("p-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	assert.ErrorIs(t, repo.Update(ctx, p, models.PaymentPending), common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
