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
	"github.com/google/uuid"
)

// AttendeeInput accepts the name either as "name" or "full_name".
type AttendeeInput struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
}

var (
	errAttendeeNotFound = common.NewError(common.ErrorNotFound, "Attendee not found")
	errAttendeeEmail    = common.NewError(common.ErrorAlreadyExists, "Attendee with this email already registered")
)

type AttendeeService struct {
	repos    repomanager.RepositoryManager
	log      logging.Logger
	timeout  time.Duration
	now      func() time.Time
	sessions *SessionService
}

func NewAttendeeService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *AttendeeService {
	return &AttendeeService{
		repos:    m,
		log:      log,
		timeout:  cfg.StoreTimeout,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: NewSessionService(m, cfg, log),
	}
}

func (s *AttendeeService) Register(ctx context.Context, actor *models.Identity, in AttendeeInput) (*models.Attendee, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(in.FullName)
	}
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, common.NewError(common.ErrorValidation, "Name and email are required")
	}
	if !strings.Contains(email, "@") {
		return nil, common.NewError(common.ErrorValidation, "Invalid email address")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.repos.Attendees().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errAttendeeEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, storeFailure(ctx, s.log, "register attendee", err)
	}

	now := s.now()
	a := &models.Attendee{
		ID:                 uuid.NewString(),
		Name:               name,
		Email:              email,
		Phone:              strings.TrimSpace(in.Phone),
		Company:            strings.TrimSpace(in.Company),
		RegisteredSessions: []string{},
		RegistrationDate:   now,
		UpdatedAt:          now,
	}
	if _, err := s.repos.Attendees().Create(ctx, a); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, errAttendeeEmail
		}
		return nil, storeFailure(ctx, s.log, "register attendee", err)
	}

	s.log.Info(ctx, "attendee registered", "attendee_id", a.ID)
	return a, nil
}

func (s *AttendeeService) Get(ctx context.Context, id string) (*models.Attendee, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	a, err := s.repos.Attendees().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errAttendeeNotFound
		}
		return nil, storeFailure(ctx, s.log, "get attendee", err)
	}
	return a, nil
}

func (s *AttendeeService) List(ctx context.Context) ([]*models.Attendee, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repos.Attendees().List(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.log, "list attendees", err)
	}
	return list, nil
}

// AddToSession seats an attendee in a session and records the session on
// the attendee. Only the organizer of the session's conference may do it.
// On stores without transactions a failed attendee update is compensated by
// removing the seat again.
func (s *AttendeeService) AddToSession(ctx context.Context, actor *models.Identity, attendeeID, sessionID string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.sessions.owned(ctx, actor, sessionID); err != nil {
		return err
	}
	if _, err := s.repos.Attendees().GetByID(ctx, attendeeID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errAttendeeNotFound
		}
		return storeFailure(ctx, s.log, "add attendee to session", err)
	}

	err := s.repos.InTx(ctx, func(tx repomanager.RepositoryManager) error {
		if err := s.sessions.addAttendee(ctx, tx, sessionID, attendeeID); err != nil {
			return err
		}
		if err := tx.Attendees().AddSession(ctx, attendeeID, sessionID); err != nil {
			if cerr := tx.Sessions().RemoveAttendee(ctx, sessionID, attendeeID); cerr != nil {
				s.log.Warn(ctx, "seat compensation failed", "session_id", sessionID, "attendee_id", attendeeID, "error", cerr)
			}
			if errors.Is(err, common.ErrorNotFound) {
				return errAttendeeNotFound
			}
			return storeFailure(ctx, s.log, "add attendee to session", err)
		}
		return nil
	})
	if err != nil {
		return storeFailure(ctx, s.log, "add attendee to session", err)
	}

	s.log.Info(ctx, "attendee added to session", "attendee_id", attendeeID, "session_id", sessionID)
	return nil
}

func (s *AttendeeService) RemoveFromSession(ctx context.Context, actor *models.Identity, attendeeID, sessionID string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.sessions.owned(ctx, actor, sessionID); err != nil {
		return err
	}

	err := s.repos.InTx(ctx, func(tx repomanager.RepositoryManager) error {
		if err := s.sessions.removeAttendee(ctx, tx, sessionID, attendeeID); err != nil {
			return err
		}
		if err := tx.Attendees().RemoveSession(ctx, attendeeID, sessionID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// the seat held an id that is not an attendee; nothing to unlink
				return nil
			}
			return storeFailure(ctx, s.log, "remove attendee from session", err)
		}
		return nil
	})
	if err != nil {
		return storeFailure(ctx, s.log, "remove attendee from session", err)
	}

	s.log.Info(ctx, "attendee removed from session", "attendee_id", attendeeID, "session_id", sessionID)
	return nil
}
