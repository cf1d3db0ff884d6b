package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
)

type ConferenceReport struct {
	ConferenceName  string            `json:"conference_name"`
	ConferenceID    string            `json:"conference_id"`
	Description     string            `json:"description"`
	Location        string            `json:"location"`
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	TotalSessions   int               `json:"total_sessions"`
	TotalAttendees  int               `json:"total_attendees"`
	MaxAttendees    int               `json:"max_attendees"`
	RegistrationFee float64           `json:"registration_fee"`
	Status          string            `json:"status"`
	Sessions        []*models.Session `json:"sessions"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

type AttendeeRow struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	JoinedDate time.Time `json:"joined_date"`
}

type AttendeesReport struct {
	ConferenceName string        `json:"conference_name"`
	TotalAttendees int           `json:"total_attendees"`
	Attendees      []AttendeeRow `json:"attendees"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

type SessionRow struct {
	Title               string    `json:"title"`
	Speaker             string    `json:"speaker"`
	Location            string    `json:"location"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	RegisteredAttendees int       `json:"registered_attendees"`
	Capacity            int       `json:"capacity"`
}

type SessionsReport struct {
	ConferenceName string       `json:"conference_name"`
	TotalSessions  int          `json:"total_sessions"`
	Sessions       []SessionRow `json:"sessions"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// ReportService builds read-only aggregates for the organizer of a
// conference.
type ReportService struct {
	repos   repomanager.RepositoryManager
	log     logging.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewReportService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *ReportService {
	return &ReportService{
		repos:   m,
		log:     log,
		timeout: cfg.StoreTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) Conference(ctx context.Context, actor *models.Identity, id string) (*ConferenceReport, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	c, list, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &ConferenceReport{
		ConferenceName:  c.Name,
		ConferenceID:    c.ID,
		Description:     c.Description,
		Location:        c.Location,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		TotalSessions:   len(list),
		TotalAttendees:  len(c.Attendees),
		MaxAttendees:    c.MaxAttendees,
		RegistrationFee: c.RegistrationFee,
		Status:          c.Status,
		Sessions:        list,
		GeneratedAt:     s.now(),
	}, nil
}

// Attendees lists the users who joined the conference in join order.
// Ids that no longer resolve to a user are skipped.
func (s *ReportService) Attendees(ctx context.Context, actor *models.Identity, id string) (*AttendeesReport, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	found, err := s.repos.Users().ListByIDs(ctx, c.Attendees)
	if err != nil {
		return nil, storeFailure(ctx, s.log, "attendees report", err)
	}
	byID := make(map[string]*models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	rows := make([]AttendeeRow, 0, len(found))
	for _, uid := range c.Attendees {
		u, ok := byID[uid]
		if !ok {
			continue
		}
		rows = append(rows, AttendeeRow{Name: u.FullName, Email: u.Email, Username: u.Username, JoinedDate: u.CreatedAt})
	}
	return &AttendeesReport{
		ConferenceName: c.Name,
		TotalAttendees: len(rows),
		Attendees:      rows,
		GeneratedAt:    s.now(),
	}, nil
}

func (s *ReportService) Sessions(ctx context.Context, actor *models.Identity, id string) (*SessionsReport, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	c, list, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	rows := make([]SessionRow, 0, len(list))
	for _, sess := range list {
		rows = append(rows, SessionRow{
			Title:               sess.Title,
			Speaker:             sess.Speaker,
			Location:            sess.Location,
			StartTime:           sess.StartTime,
			EndTime:             sess.EndTime,
			RegisteredAttendees: len(sess.Attendees),
			Capacity:            sess.Capacity,
		})
	}
	return &SessionsReport{
		ConferenceName: c.Name,
		TotalSessions:  len(rows),
		Sessions:       rows,
		GeneratedAt:    s.now(),
	}, nil
}

func (s *ReportService) load(ctx context.Context, actor *models.Identity, id string) (*models.Conference, []*models.Session, error) {
	c, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.repos.Sessions().ListByConference(ctx, c.ID)
	if err != nil {
		return nil, nil, storeFailure(ctx, s.log, "load report sessions", err)
	}
	return c, list, nil
}

func (s *ReportService) owned(ctx context.Context, actor *models.Identity, id string) (*models.Conference, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	c, err := s.repos.Conferences().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errConferenceNotFound
		}
		return nil, storeFailure(ctx, s.log, "load report conference", err)
	}
	if err := RequireOwner(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}
