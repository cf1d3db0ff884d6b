package loginsessions

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func sample() *models.LoginSession {
	return &models.LoginSession{ID: "sid", UserID: "u1", Username: "ada", Email: "ada@x.io", FullName: "Ada L",
		CreatedAt: created, ExpiresAt: created.Add(7 * 24 * time.Hour)}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	s := sample()
	q := `(?s)^INSERT\s+INTO\s+login_sessions\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*$`
	mock.ExpectExec(q).
		WithArgs("sid", "u1", "ada", "ada@x.io", "Ada L", s.ExpiresAt, s.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+login_sessions\b`).WillReturnError(errors.New("insert failed"))

	err := repo.Create(context.Background(), sample())
	if err == nil || !strings.Contains(err.Error(), "db error: insert failed") {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*user_id,\s*username,\s*email,\s*full_name,\s*expires_at,\s*created_at\s+FROM\s+login_sessions\s+WHERE\s+id\s*=\s*\$1\s*$`
	s := sample()
	mock.ExpectQuery(q).WithArgs("sid").WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "username", "email", "full_name", "expires_at", "created_at"}).
			AddRow(s.ID, s.UserID, s.Username, s.Email, s.FullName, s.ExpiresAt, s.CreatedAt))
	mock.ExpectQuery(q).WithArgs("gone").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("boom").WillReturnError(errors.New("select failed"))

	got, err := repo.Find(context.Background(), "sid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Identity().Username != "ada" || !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Fatalf("unexpected session: %+v", got)
	}

	if _, err := repo.Find(context.Background(), "gone"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if _, err := repo.Find(context.Background(), "boom"); err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+login_sessions\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("sid").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "sid"); err != nil {
		t.Fatalf("delete of missing session must succeed, got %v", err)
	}
}

func TestDeleteByUserAndExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+login_sessions\s+WHERE\s+user_id\s*=\s*\$1$`).WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`^DELETE\s+FROM\s+login_sessions\s+WHERE\s+expires_at\s*<=\s*\$1$`).WithArgs(created).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByUser(context.Background(), "u1")
	if err != nil || n != 3 {
		t.Fatalf("DeleteByUser = %d, %v", n, err)
	}
	n, err = repo.DeleteExpired(context.Background(), created)
	if err != nil || n != 2 {
		t.Fatalf("DeleteExpired = %d, %v", n, err)
	}
}
