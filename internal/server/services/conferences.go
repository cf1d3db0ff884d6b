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
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/conferences"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ConferenceInput is a create payload or a partial update. Nil fields are
// absent.
type ConferenceInput struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Field           *string  `json:"field"`
	Location        *string  `json:"location"`
	City            *string  `json:"city"`
	Country         *string  `json:"country"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	MaxAttendees    *int     `json:"max_attendees"`
	RegistrationFee *float64 `json:"registration_fee"`
	Status          *string  `json:"status"`
	Logo            *string  `json:"logo"`
	Banner          *string  `json:"banner"`
	Website         *string  `json:"website"`
}

var (
	errConferenceNotFound = common.NewError(common.ErrorNotFound, "Conference not found")
	errConferenceName     = common.NewError(common.ErrorAlreadyExists, "Conference name already exists")
	errInvalidDate        = common.NewError(common.ErrorValidation, "Invalid date format")
	errAlreadyJoined      = common.NewError(common.ErrorAlreadyExists, "Already joined this conference")
	errConferenceFull     = common.NewError(common.ErrCapacityFull, "Conference is full")
	errNotJoined          = common.NewError(common.ErrorValidation, "Not joined this conference")
)

type ConferenceService struct {
	repos   repomanager.RepositoryManager
	log     logging.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewConferenceService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *ConferenceService {
	return &ConferenceService{
		repos:   m,
		log:     log,
		timeout: cfg.StoreTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new upcoming conference organized by actor.
func (s *ConferenceService) Create(ctx context.Context, actor *models.Identity, in ConferenceInput) (*models.Conference, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	if blank(in.Name) || in.Description == nil || blank(in.Location) || blank(in.StartDate) || blank(in.EndDate) {
		return nil, common.NewError(common.ErrorValidation, "Missing required fields")
	}

	now := s.now()
	c := &models.Conference{
		ID:           uuid.NewString(),
		OrganizerID:  actor.UserID,
		MaxAttendees: models.DefaultMaxAttendees,
		Status:       models.StatusUpcoming,
		Attendees:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// New conferences always start upcoming.
	in.Status = nil
	if err := applyConferenceInput(c, in); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repos.Conferences().GetByName(ctx, c.Name); err == nil {
		return nil, errConferenceName
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, storeFailure(ctx, s.log, "create conference", err)
	}

	if _, err := s.repos.Conferences().Create(ctx, c); err != nil {
		if errors.Is(err, conferences.ErrDuplicateName) {
			return nil, errConferenceName
		}
		return nil, storeFailure(ctx, s.log, "create conference", err)
	}

	s.log.Info(ctx, "conference created", "conference_id", c.ID, "organizer_id", c.OrganizerID)
	return c, nil
}

func (s *ConferenceService) Get(ctx context.Context, id string) (*models.Conference, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.get(ctx, id)
}

func (s *ConferenceService) get(ctx context.Context, id string) (*models.Conference, error) {
	c, err := s.repos.Conferences().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errConferenceNotFound
		}
		return nil, storeFailure(ctx, s.log, "get conference", err)
	}
	return c, nil
}

func (s *ConferenceService) List(ctx context.Context) ([]*models.Conference, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repos.Conferences().List(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.log, "list conferences", err)
	}
	return list, nil
}

// Update applies the present fields of in. Renaming a conference to its own
// name is not a conflict; the organizer never changes.
func (s *ConferenceService) Update(ctx context.Context, actor *models.Identity, id string, in ConferenceInput) (*models.Conference, error) {
	if actor == nil {
		return nil, errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(actor, c); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, common.NewError(common.ErrorValidation, "Conference name cannot be empty")
		}
		existing, err := s.repos.Conferences().GetByName(ctx, name)
		switch {
		case err == nil && existing.ID != c.ID:
			return nil, errConferenceName
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, storeFailure(ctx, s.log, "update conference", err)
		}
	}
	if err := applyConferenceInput(c, in); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()

	if err := s.repos.Conferences().Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, conferences.ErrDuplicateName):
			return nil, errConferenceName
		case errors.Is(err, common.ErrCapacityFull):
			return nil, common.NewError(common.ErrorValidation, "max_attendees is below the number of attendees")
		case errors.Is(err, common.ErrorNotFound):
			return nil, errConferenceNotFound
		}
		return nil, storeFailure(ctx, s.log, "update conference", err)
	}

	s.log.Info(ctx, "conference updated", "conference_id", c.ID)
	return c, nil
}

// Delete removes the conference. Its sessions are left in place.
func (s *ConferenceService) Delete(ctx context.Context, actor *models.Identity, id string) error {
	if actor == nil {
		return errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwner(actor, c); err != nil {
		return err
	}
	if err := s.repos.Conferences().Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errConferenceNotFound
		}
		return storeFailure(ctx, s.log, "delete conference", err)
	}

	s.log.Info(ctx, "conference deleted", "conference_id", id, "name", c.Name)
	return nil
}

// Join adds the acting user to the conference attendees, bounded by
// max_attendees.
func (s *ConferenceService) Join(ctx context.Context, actor *models.Identity, id string) error {
	if actor == nil {
		return errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.repos.Conferences().AddAttendee(ctx, id, actor.UserID)
	switch {
	case err == nil:
		s.log.Info(ctx, "user joined conference", "conference_id", id, "user_id", actor.UserID)
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return errConferenceNotFound
	case errors.Is(err, conferences.ErrAlreadyRegistered):
		return errAlreadyJoined
	case errors.Is(err, common.ErrCapacityFull):
		return errConferenceFull
	}
	return storeFailure(ctx, s.log, "join conference", err)
}

func (s *ConferenceService) Leave(ctx context.Context, actor *models.Identity, id string) error {
	if actor == nil {
		return errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.repos.Conferences().RemoveAttendee(ctx, id, actor.UserID)
	switch {
	case err == nil:
		s.log.Info(ctx, "user left conference", "conference_id", id, "user_id", actor.UserID)
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return errConferenceNotFound
	case errors.Is(err, common.ErrNotRegistered):
		return errNotJoined
	}
	return storeFailure(ctx, s.log, "leave conference", err)
}

// applyConferenceInput copies the present fields into c and validates the
// result.
func applyConferenceInput(c *models.Conference, in ConferenceInput) error {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&c.Name, in.Name)
	setString(&c.Description, in.Description)
	setString(&c.Field, in.Field)
	setString(&c.Location, in.Location)
	setString(&c.City, in.City)
	setString(&c.Country, in.Country)
	setString(&c.Logo, in.Logo)
	setString(&c.Banner, in.Banner)
	setString(&c.Website, in.Website)

	if in.StartDate != nil {
		t, err := parseTime(*in.StartDate, errInvalidDate)
		if err != nil {
			return err
		}
		c.StartDate = t
	}
	if in.EndDate != nil {
		t, err := parseTime(*in.EndDate, errInvalidDate)
		if err != nil {
			return err
		}
		c.EndDate = t
	}
	if c.EndDate.Before(c.StartDate) {
		return common.NewError(common.ErrorValidation, "End date must not be before start date")
	}

	if in.MaxAttendees != nil {
		if *in.MaxAttendees < 1 {
			return common.NewError(common.ErrorValidation, "max_attendees must be at least 1")
		}
		c.MaxAttendees = *in.MaxAttendees
	}
	if in.RegistrationFee != nil {
		if *in.RegistrationFee < 0 {
			return common.NewError(common.ErrorValidation, "registration_fee must not be negative")
		}
		c.RegistrationFee = *in.RegistrationFee
	}
	if in.Status != nil {
		if !models.ValidConferenceStatus(*in.Status) {
			return common.NewError(common.ErrorValidation, "Invalid status")
		}
		c.Status = *in.Status
	}
	return nil
}
