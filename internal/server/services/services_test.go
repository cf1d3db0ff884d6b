package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StoreTimeout = 2 * time.Second
	return cfg
}

func fixedClock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

// addUser stores an account directly, skipping password hashing.
func addUser(t *testing.T, store *memstore.Store, username string) *models.Identity {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		FullName:     username + " user",
		IsActive:     true,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	_, err := store.Users().Create(context.Background(), u)
	require.NoError(t, err)
	return &models.Identity{SessionID: uuid.NewString(), UserID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName}
}

func newConferenceService(store *memstore.Store) *ConferenceService {
	s := NewConferenceService(store, testConfig(), logging.Nop{})
	s.now = fixedClock
	return s
}

func newSessionService(store *memstore.Store) *SessionService {
	s := NewSessionService(store, testConfig(), logging.Nop{})
	s.now = fixedClock
	return s
}

func devCon(name string) ConferenceInput {
	return ConferenceInput{
		Name:        ptr(name),
		Description: ptr("..."),
		Location:    ptr("NYC"),
		StartDate:   ptr("2025-01-01"),
		EndDate:     ptr("2025-01-03"),
	}
}

func createConference(t *testing.T, store *memstore.Store, actor *models.Identity, in ConferenceInput) *models.Conference {
	t.Helper()
	c, err := newConferenceService(store).Create(context.Background(), actor, in)
	require.NoError(t, err)
	return c
}

func talk(conferenceID string, capacity int) SessionInput {
	in := SessionInput{
		ConferenceID: ptr(conferenceID),
		Title:        ptr("Go in production"),
		Speaker:      ptr("Rob"),
		StartTime:    ptr("2025-01-01T10:00:00"),
		EndTime:      ptr("2025-01-01T11:00:00"),
		Location:     ptr("Hall A"),
	}
	if capacity > 0 {
		in.Capacity = ptr(capacity)
	}
	return in
}

func createSession(t *testing.T, store *memstore.Store, actor *models.Identity, in SessionInput) *models.Session {
	t.Helper()
	sess, err := newSessionService(store).Create(context.Background(), actor, in)
	require.NoError(t, err)
	return sess
}

func identityOf(userID string) *models.Identity {
	return &models.Identity{UserID: userID}
}
