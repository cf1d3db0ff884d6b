package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/dbx"
	"github.com/dmitrijs2005/confkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/attendees"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/conferences"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/loginsessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/payments"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to
// either the pool or a transaction.
type PostgresRepositoryManager struct {
	db   *sql.DB
	conn dbx.DBTX
	inTx bool
}

// NewPostgresRepositoryManager takes ownership of db.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db, conn: db}
}

// OpenPostgres opens a pgx-backed pool and checks it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return users.NewPostgresRepository(m.conn)
}

func (m *PostgresRepositoryManager) Conferences() conferences.Repository {
	return conferences.NewPostgresRepository(m.conn)
}

func (m *PostgresRepositoryManager) Sessions() sessions.Repository {
	return sessions.NewPostgresRepository(m.conn)
}

func (m *PostgresRepositoryManager) Attendees() attendees.Repository {
	return attendees.NewPostgresRepository(m.conn)
}

func (m *PostgresRepositoryManager) LoginSessions() loginsessions.Repository {
	return loginsessions.NewPostgresRepository(m.conn)
}

func (m *PostgresRepositoryManager) Payments() payments.Repository {
	return payments.NewPostgresRepository(m.conn)
}

func (m *PostgresRepositoryManager) InTx(ctx context.Context, fn func(m RepositoryManager) error) error {
	if m.inTx {
		return fn(m)
	}
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(&PostgresRepositoryManager{db: m.db, conn: tx, inTx: true})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close(context.Context) error {
	return m.db.Close()
}
