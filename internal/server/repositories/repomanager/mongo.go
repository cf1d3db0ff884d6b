package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/mongox"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/attendees"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/conferences"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/loginsessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/payments"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepositoryManager vends MongoDB-backed repositories. Indexes play the
// role migrations play for Postgres.
type MongoRepositoryManager struct {
	client *mongo.Client

	users         *users.MongoRepository
	conferences   *conferences.MongoRepository
	sessions      *sessions.MongoRepository
	attendees     *attendees.MongoRepository
	loginSessions *loginsessions.MongoRepository
	payments      *payments.MongoRepository
}

// OpenMongo connects with the timeouts from cfg.
func OpenMongo(ctx context.Context, cfg *config.Config) (*MongoRepositoryManager, error) {
	client, err := mongox.Open(ctx, cfg.MongoURI, mongox.Options{
		ServerSelectionTimeout: cfg.MongoServerSelectionTimeout,
		ConnectTimeout:         cfg.MongoConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open mongo: %w", err)
	}
	return NewMongoRepositoryManager(client, client.Database(cfg.DatabaseName)), nil
}

// NewMongoRepositoryManager binds repositories to db. client may be nil when
// the caller owns the connection.
func NewMongoRepositoryManager(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client:        client,
		users:         users.NewMongoRepository(db),
		conferences:   conferences.NewMongoRepository(db),
		sessions:      sessions.NewMongoRepository(db),
		attendees:     attendees.NewMongoRepository(db),
		loginSessions: loginsessions.NewMongoRepository(db),
		payments:      payments.NewMongoRepository(db),
	}
}

func (m *MongoRepositoryManager) Users() users.Repository                 { return m.users }
func (m *MongoRepositoryManager) Conferences() conferences.Repository     { return m.conferences }
func (m *MongoRepositoryManager) Sessions() sessions.Repository           { return m.sessions }
func (m *MongoRepositoryManager) Attendees() attendees.Repository         { return m.attendees }
func (m *MongoRepositoryManager) LoginSessions() loginsessions.Repository { return m.loginSessions }
func (m *MongoRepositoryManager) Payments() payments.Repository           { return m.payments }

// InTx runs fn directly; callers compensate on partial failure.
func (m *MongoRepositoryManager) InTx(_ context.Context, fn func(m RepositoryManager) error) error {
	return fn(m)
}

func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	steps := []interface {
		EnsureIndexes(context.Context) error
	}{m.users, m.conferences, m.sessions, m.attendees, m.loginSessions, m.payments}

	for _, s := range steps {
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
