// Package repomanager vends the repositories of one store backend and owns
// its connection lifecycle.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/attendees"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/conferences"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/loginsessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/payments"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	Conferences() conferences.Repository
	Sessions() sessions.Repository
	Attendees() attendees.Repository
	LoginSessions() loginsessions.Repository
	Payments() payments.Repository

	// InTx runs fn with repositories bound to one transaction when the
	// backend supports it, and with the plain repositories otherwise.
	InTx(ctx context.Context, fn func(m RepositoryManager) error) error

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresRepositoryManager(db), nil
	case config.DriverMongo:
		return OpenMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
