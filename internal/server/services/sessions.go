package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/sessions"
	"github.com/google/uuid"
)

type SessionInput struct {
	ConferenceID *string `json:"conference_id"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Speaker      *string `json:"speaker"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	Location     *string `json:"location"`
	Capacity     *int    `json:"capacity"`
}

var (
	errSessionNotFound     = common.NewError(common.ErrorNotFound, "Session not found")
	errInvalidTime         = common.NewError(common.ErrorValidation, "Invalid time format")
	errAlreadyRegistered   = common.NewError(common.ErrorAlreadyExists, "Already registered for this session")
	errSessionFull         = common.NewError(common.ErrCapacityFull, "Session is full")
	errNotRegistered       = common.NewError(common.ErrorValidation, "Not registered for this session")
	errCapacityBelowSeated = common.NewError(common.ErrorValidation, "Capacity is below the number of registered attendees")
)

type SessionService struct {
	repos   repomanager.RepositoryManager
	log     logging.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewSessionService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *SessionService {
	return &SessionService{
		repos:   m,
		log:     log,
		timeout: cfg.StoreTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create schedules a session inside a conference organized by actor.
func (s *SessionService) Create(ctx context.Context, actor *models.Identity, in SessionInput) (*models.Session, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	if blank(in.ConferenceID) || blank(in.Title) || blank(in.Speaker) || blank(in.StartTime) ||
		blank(in.EndTime) || blank(in.Location) {
		return nil, common.NewError(common.ErrorValidation, "Missing required fields")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.repos.Conferences().GetByID(ctx, *in.ConferenceID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errConferenceNotFound
		}
		return nil, storeFailure(ctx, s.log, "create session", err)
	}
	if err := RequireOwner(actor, c); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &models.Session{
		ID:           uuid.NewString(),
		ConferenceID: c.ID,
		Capacity:     models.DefaultSessionCapacity,
		Attendees:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := applySessionInput(sess, in); err != nil {
		return nil, err
	}

	if _, err := s.repos.Sessions().Create(ctx, sess); err != nil {
		return nil, storeFailure(ctx, s.log, "create session", err)
	}

	s.log.Info(ctx, "session created", "session_id", sess.ID, "conference_id", c.ID)
	return sess, nil
}

// List returns the sessions of a conference by start time. The conference
// itself need not exist any more.
func (s *SessionService) List(ctx context.Context, conferenceID string) ([]*models.Session, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repos.Sessions().ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, storeFailure(ctx, s.log, "list sessions", err)
	}
	return list, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.get(ctx, id)
}

func (s *SessionService) get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.repos.Sessions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errSessionNotFound
		}
		return nil, storeFailure(ctx, s.log, "get session", err)
	}
	return sess, nil
}

// owned loads a session and checks actor organizes its conference. A
// session whose conference is gone has no owner.
func (s *SessionService) owned(ctx context.Context, actor *models.Identity, id string) (*models.Session, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.repos.Conferences().GetByID(ctx, sess.ConferenceID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errNotOrganizer
		}
		return nil, storeFailure(ctx, s.log, "load session conference", err)
	}
	if err := RequireOwner(actor, c); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update applies the present fields of in. The conference of a session
// cannot change.
func (s *SessionService) Update(ctx context.Context, actor *models.Identity, id string, in SessionInput) (*models.Session, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.ConferenceID = nil
	for _, f := range []*string{in.Title, in.Speaker} {
		if f != nil && strings.TrimSpace(*f) == "" {
			return nil, common.NewError(common.ErrorValidation, "Title and speaker cannot be empty")
		}
	}
	if err := applySessionInput(sess, in); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()

	if err := s.repos.Sessions().Update(ctx, sess); err != nil {
		switch {
		case errors.Is(err, common.ErrCapacityFull):
			return nil, errCapacityBelowSeated
		case errors.Is(err, common.ErrorNotFound):
			return nil, errSessionNotFound
		}
		return nil, storeFailure(ctx, s.log, "update session", err)
	}

	s.log.Info(ctx, "session updated", "session_id", sess.ID)
	return sess, nil
}

func (s *SessionService) Delete(ctx context.Context, actor *models.Identity, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repos.Sessions().Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errSessionNotFound
		}
		return storeFailure(ctx, s.log, "delete session", err)
	}

	s.log.Info(ctx, "session deleted", "session_id", id)
	return nil
}

// Register adds the acting user to the session. Capacity and duplicate
// checks happen inside one conditional store write.
func (s *SessionService) Register(ctx context.Context, actor *models.Identity, id string) error {
	if actor == nil {
		return errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.addAttendee(ctx, s.repos, id, actor.UserID); err != nil {
		return err
	}
	s.log.Info(ctx, "user registered for session", "session_id", id, "user_id", actor.UserID)
	return nil
}

func (s *SessionService) Unregister(ctx context.Context, actor *models.Identity, id string) error {
	if actor == nil {
		return errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.removeAttendee(ctx, s.repos, id, actor.UserID); err != nil {
		return err
	}
	s.log.Info(ctx, "user unregistered from session", "session_id", id, "user_id", actor.UserID)
	return nil
}

func (s *SessionService) addAttendee(ctx context.Context, repos repomanager.RepositoryManager, id, attendeeID string) error {
	err := repos.Sessions().AddAttendee(ctx, id, attendeeID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return errSessionNotFound
	case errors.Is(err, sessions.ErrAlreadyRegistered):
		return errAlreadyRegistered
	case errors.Is(err, common.ErrCapacityFull):
		return errSessionFull
	}
	return storeFailure(ctx, s.log, "register for session", err)
}

func (s *SessionService) removeAttendee(ctx context.Context, repos repomanager.RepositoryManager, id, attendeeID string) error {
	err := repos.Sessions().RemoveAttendee(ctx, id, attendeeID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return errSessionNotFound
	case errors.Is(err, common.ErrNotRegistered):
		return errNotRegistered
	}
	return storeFailure(ctx, s.log, "unregister from session", err)
}

func applySessionInput(sess *models.Session, in SessionInput) error {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&sess.Title, in.Title)
	setString(&sess.Description, in.Description)
	setString(&sess.Speaker, in.Speaker)
	setString(&sess.Location, in.Location)

	if in.StartTime != nil {
		t, err := parseTime(*in.StartTime, errInvalidTime)
		if err != nil {
			return err
		}
		sess.StartTime = t
	}
	if in.EndTime != nil {
		t, err := parseTime(*in.EndTime, errInvalidTime)
		if err != nil {
			return err
		}
		sess.EndTime = t
	}
	if sess.EndTime.Before(sess.StartTime) {
		return common.NewError(common.ErrorValidation, "End time must not be before start time")
	}
	if in.Capacity != nil {
		if *in.Capacity < 1 {
			return common.NewError(common.ErrorValidation, "Capacity must be at least 1")
		}
		sess.Capacity = *in.Capacity
	}
	return nil
}
