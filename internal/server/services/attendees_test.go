package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttendeeService(store *memstore.Store) *AttendeeService {
	s := NewAttendeeService(store, testConfig(), logging.Nop{})
	s.now = fixedClock
	return s
}

func TestAttendeeRegister(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newAttendeeService(store)
	actor := addUser(t, store, "alice")

	a, err := svc.Register(ctx, actor, AttendeeInput{FullName: "Grace Hopper", Email: "grace@example.com", Company: "Navy"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", a.Name)
	assert.Equal(t, testNow, a.RegistrationDate)
	assert.Empty(t, a.RegisteredSessions)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Navy", got.Company)

	_, err = svc.Register(ctx, actor, AttendeeInput{Name: "Impostor", Email: "grace@example.com"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Equal(t, "Attendee with this email already registered", err.Error())

	_, err = svc.Register(ctx, actor, AttendeeInput{Email: "x@example.com"})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Register(ctx, actor, AttendeeInput{Name: "X", Email: "nope"})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.Register(ctx, nil, AttendeeInput{Name: "X", Email: "x@example.com"})
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAttendeeSessions(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newAttendeeService(store)
	organizer := addUser(t, store, "alice")
	stranger := addUser(t, store, "bob")
	c := createConference(t, store, organizer, devCon("DevCon"))
	sess := createSession(t, store, organizer, talk(c.ID, 1))

	grace, err := svc.Register(ctx, organizer, AttendeeInput{Name: "Grace", Email: "grace@example.com"})
	require.NoError(t, err)
	ada, err := svc.Register(ctx, organizer, AttendeeInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.AddToSession(ctx, stranger, grace.ID, sess.ID), common.ErrForbidden)
	require.ErrorIs(t, svc.AddToSession(ctx, organizer, "missing", sess.ID), common.ErrorNotFound)

	require.NoError(t, svc.AddToSession(ctx, organizer, grace.ID, sess.ID))
	require.ErrorIs(t, svc.AddToSession(ctx, organizer, grace.ID, sess.ID), common.ErrorAlreadyExists)
	require.ErrorIs(t, svc.AddToSession(ctx, organizer, ada.ID, sess.ID), common.ErrCapacityFull)

	got, err := svc.Get(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{sess.ID}, got.RegisteredSessions)

	seated, err := store.Sessions().GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{grace.ID}, seated.Attendees)

	got, err = svc.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RegisteredSessions)

	require.NoError(t, svc.RemoveFromSession(ctx, organizer, grace.ID, sess.ID))
	require.ErrorIs(t, svc.RemoveFromSession(ctx, organizer, grace.ID, sess.ID), common.ErrorValidation)

	got, err = svc.Get(ctx, grace.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RegisteredSessions)

	require.NoError(t, svc.AddToSession(ctx, organizer, ada.ID, sess.ID))
}
