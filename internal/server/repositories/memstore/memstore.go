// Package memstore is an in-memory RepositoryManager for tests of the
// layers above the store. It honours the same uniqueness and capacity
// contracts as the real backends; every call holds one mutex.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/attendees"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/conferences"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/loginsessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/payments"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/users"
)

type Store struct {
	mu sync.Mutex
	// err, when set, is returned by every repository call.
	err error

	users         map[string]models.User
	conferences   map[string]models.Conference
	sessions      map[string]models.Session
	attendees     map[string]models.Attendee
	loginSessions map[string]models.LoginSession
	payments      map[string]models.Payment

	migrated bool
	closed   bool
}

var _ repomanager.RepositoryManager = (*Store)(nil)

func New() *Store {
	return &Store{
		users:         map[string]models.User{},
		conferences:   map[string]models.Conference{},
		sessions:      map[string]models.Session{},
		attendees:     map[string]models.Attendee{},
		loginSessions: map[string]models.LoginSession{},
		payments:      map[string]models.Payment{},
	}
}

// SetError makes every subsequent call fail with err; nil restores normal
// behaviour.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Migrated reports whether RunMigrations was called.
func (s *Store) Migrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.migrated
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) Users() users.Repository                 { return userRepo{s} }
func (s *Store) Conferences() conferences.Repository     { return conferenceRepo{s} }
func (s *Store) Sessions() sessions.Repository           { return sessionRepo{s} }
func (s *Store) Attendees() attendees.Repository         { return attendeeRepo{s} }
func (s *Store) LoginSessions() loginsessions.Repository { return loginSessionRepo{s} }
func (s *Store) Payments() payments.Repository           { return paymentRepo{s} }

func (s *Store) InTx(_ context.Context, fn func(m repomanager.RepositoryManager) error) error {
	return fn(s)
}

func (s *Store) RunMigrations(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.migrated = true
	return nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// lock acquires the mutex and reports the injected error, if any. The
// caller must always unlock.
func (s *Store) lock() error {
	s.mu.Lock()
	return s.err
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	for _, other := range r.s.users {
		if other.Username == u.Username {
			return nil, users.ErrDuplicateUsername
		}
		if other.Email == u.Email {
			return nil, users.ErrDuplicateEmail
		}
	}
	r.s.users[u.ID] = *u
	return u, nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r userRepo) find(match func(models.User) bool) (*models.User, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r userRepo) ListByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	result := []*models.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			result = append(result, &u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r userRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *models.User) { u.LastLogin = &at; u.UpdatedAt = at })
}

func (r userRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.update(id, func(u *models.User) { u.IsActive = active; u.UpdatedAt = time.Now().UTC() })
}

func (r userRepo) update(id string, fn func(*models.User)) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

type conferenceRepo struct{ s *Store }

func (r conferenceRepo) Create(_ context.Context, c *models.Conference) (*models.Conference, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	for _, other := range r.s.conferences {
		if other.Name == c.Name {
			return nil, conferences.ErrDuplicateName
		}
	}
	if c.Attendees == nil {
		c.Attendees = []string{}
	}
	stored := *c
	stored.Attendees = slices.Clone(c.Attendees)
	r.s.conferences[c.ID] = stored
	return c, nil
}

func (r conferenceRepo) GetByID(_ context.Context, id string) (*models.Conference, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	c, ok := r.s.conferences[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneConference(c), nil
}

func (r conferenceRepo) GetByName(_ context.Context, name string) (*models.Conference, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	for _, c := range r.s.conferences {
		if c.Name == name {
			return cloneConference(c), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r conferenceRepo) List(context.Context) ([]*models.Conference, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	result := []*models.Conference{}
	for _, c := range r.s.conferences {
		result = append(result, cloneConference(c))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (r conferenceRepo) Update(_ context.Context, c *models.Conference) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	cur, ok := r.s.conferences[c.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, other := range r.s.conferences {
		if id != c.ID && other.Name == c.Name {
			return conferences.ErrDuplicateName
		}
	}
	if len(cur.Attendees) > c.MaxAttendees {
		return common.ErrCapacityFull
	}
	next := *c
	next.OrganizerID = cur.OrganizerID
	next.Attendees = cur.Attendees
	next.CreatedAt = cur.CreatedAt
	r.s.conferences[c.ID] = next
	return nil
}

func (r conferenceRepo) Delete(_ context.Context, id string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	if _, ok := r.s.conferences[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.conferences, id)
	return nil
}

func (r conferenceRepo) AddAttendee(_ context.Context, id, userID string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	c, ok := r.s.conferences[id]
	switch {
	case !ok:
		return common.ErrorNotFound
	case c.HasAttendee(userID):
		return conferences.ErrAlreadyRegistered
	case len(c.Attendees) >= c.MaxAttendees:
		return common.ErrCapacityFull
	}
	c.Attendees = append(slices.Clone(c.Attendees), userID)
	r.s.conferences[id] = c
	return nil
}

func (r conferenceRepo) RemoveAttendee(_ context.Context, id, userID string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	c, ok := r.s.conferences[id]
	if !ok {
		return common.ErrorNotFound
	}
	i := slices.Index(c.Attendees, userID)
	if i < 0 {
		return common.ErrNotRegistered
	}
	c.Attendees = slices.Delete(slices.Clone(c.Attendees), i, i+1)
	r.s.conferences[id] = c
	return nil
}

func cloneConference(c models.Conference) *models.Conference {
	c.Attendees = slices.Clone(c.Attendees)
	if c.Attendees == nil {
		c.Attendees = []string{}
	}
	return &c
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, sess *models.Session) (*models.Session, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	if sess.Attendees == nil {
		sess.Attendees = []string{}
	}
	stored := *sess
	stored.Attendees = slices.Clone(sess.Attendees)
	r.s.sessions[sess.ID] = stored
	return sess, nil
}

func (r sessionRepo) GetByID(_ context.Context, id string) (*models.Session, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneSession(sess), nil
}

func (r sessionRepo) ListByConference(_ context.Context, conferenceID string) ([]*models.Session, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	result := []*models.Session{}
	for _, sess := range r.s.sessions {
		if sess.ConferenceID == conferenceID {
			result = append(result, cloneSession(sess))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (r sessionRepo) Update(_ context.Context, sess *models.Session) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	cur, ok := r.s.sessions[sess.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if len(cur.Attendees) > sess.Capacity {
		return common.ErrCapacityFull
	}
	next := *sess
	next.ConferenceID = cur.ConferenceID
	next.Attendees = cur.Attendees
	next.CreatedAt = cur.CreatedAt
	r.s.sessions[sess.ID] = next
	return nil
}

func (r sessionRepo) Delete(_ context.Context, id string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	if _, ok := r.s.sessions[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.sessions, id)
	return nil
}

func (r sessionRepo) AddAttendee(_ context.Context, id, attendeeID string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	sess, ok := r.s.sessions[id]
	switch {
	case !ok:
		return common.ErrorNotFound
	case sess.HasAttendee(attendeeID):
		return sessions.ErrAlreadyRegistered
	case len(sess.Attendees) >= sess.Capacity:
		return common.ErrCapacityFull
	}
	sess.Attendees = append(slices.Clone(sess.Attendees), attendeeID)
	r.s.sessions[id] = sess
	return nil
}

func (r sessionRepo) RemoveAttendee(_ context.Context, id, attendeeID string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	sess, ok := r.s.sessions[id]
	if !ok {
		return common.ErrorNotFound
	}
	i := slices.Index(sess.Attendees, attendeeID)
	if i < 0 {
		return common.ErrNotRegistered
	}
	sess.Attendees = slices.Delete(slices.Clone(sess.Attendees), i, i+1)
	r.s.sessions[id] = sess
	return nil
}

func cloneSession(sess models.Session) *models.Session {
	sess.Attendees = slices.Clone(sess.Attendees)
	if sess.Attendees == nil {
		sess.Attendees = []string{}
	}
	return &sess
}

type attendeeRepo struct{ s *Store }

func (r attendeeRepo) Create(_ context.Context, a *models.Attendee) (*models.Attendee, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	for _, other := range r.s.attendees {
		if other.Email == a.Email {
			return nil, attendees.ErrDuplicateEmail
		}
	}
	if a.RegisteredSessions == nil {
		a.RegisteredSessions = []string{}
	}
	stored := *a
	stored.RegisteredSessions = slices.Clone(a.RegisteredSessions)
	r.s.attendees[a.ID] = stored
	return a, nil
}

func (r attendeeRepo) GetByID(_ context.Context, id string) (*models.Attendee, error) {
	return r.find(func(a models.Attendee) bool { return a.ID == id })
}

func (r attendeeRepo) GetByEmail(_ context.Context, email string) (*models.Attendee, error) {
	return r.find(func(a models.Attendee) bool { return a.Email == email })
}

func (r attendeeRepo) find(match func(models.Attendee) bool) (*models.Attendee, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	for _, a := range r.s.attendees {
		if match(a) {
			a.RegisteredSessions = slices.Clone(a.RegisteredSessions)
			return &a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r attendeeRepo) List(context.Context) ([]*models.Attendee, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	result := []*models.Attendee{}
	for _, a := range r.s.attendees {
		a.RegisteredSessions = slices.Clone(a.RegisteredSessions)
		result = append(result, &a)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RegistrationDate.Before(result[j].RegistrationDate)
	})
	return result, nil
}

func (r attendeeRepo) AddSession(_ context.Context, id, sessionID string) error {
	return r.update(id, func(a *models.Attendee) {
		if !slices.Contains(a.RegisteredSessions, sessionID) {
			a.RegisteredSessions = append(slices.Clone(a.RegisteredSessions), sessionID)
		}
	})
}

func (r attendeeRepo) RemoveSession(_ context.Context, id, sessionID string) error {
	return r.update(id, func(a *models.Attendee) {
		a.RegisteredSessions = slices.DeleteFunc(slices.Clone(a.RegisteredSessions),
			func(s string) bool { return s == sessionID })
	})
}

func (r attendeeRepo) update(id string, fn func(*models.Attendee)) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	a, ok := r.s.attendees[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&a)
	r.s.attendees[id] = a
	return nil
}

type loginSessionRepo struct{ s *Store }

func (r loginSessionRepo) Create(_ context.Context, ls *models.LoginSession) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	r.s.loginSessions[ls.ID] = *ls
	return nil
}

func (r loginSessionRepo) Find(_ context.Context, id string) (*models.LoginSession, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	ls, ok := r.s.loginSessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &ls, nil
}

func (r loginSessionRepo) Delete(_ context.Context, id string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	delete(r.s.loginSessions, id)
	return nil
}

func (r loginSessionRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return r.deleteWhere(func(ls models.LoginSession) bool { return ls.UserID == userID })
}

func (r loginSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(ls models.LoginSession) bool { return ls.Expired(now) })
}

func (r loginSessionRepo) deleteWhere(match func(models.LoginSession) bool) (int64, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return 0, err
	}
	var n int64
	for id, ls := range r.s.loginSessions {
		if match(ls) {
			delete(r.s.loginSessions, id)
			n++
		}
	}
	return n, nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *models.Payment) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	p, ok := r.s.payments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r paymentRepo) ListByUser(_ context.Context, userID string) ([]*models.Payment, error) {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	result := []*models.Payment{}
	for _, p := range r.s.payments {
		if p.UserID == userID {
			result = append(result, &p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r paymentRepo) Update(_ context.Context, p *models.Payment, from string) error {
	defer r.s.mu.Unlock()
	if err := r.s.lock(); err != nil {
		return err
	}
	cur, ok := r.s.payments[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if cur.Status != from {
		return common.ErrVersionConflict
	}
	cur.Status = p.Status
	cur.TransactionID = p.TransactionID
	cur.RefundID = p.RefundID
	cur.RefundReason = p.RefundReason
	cur.ProcessedAt = p.ProcessedAt
	r.s.payments[p.ID] = cur
	return nil
}
