// Package sessions persists the talks scheduled inside a conference.
package sessions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

var ErrAlreadyRegistered = fmt.Errorf("attendee %w", common.ErrorAlreadyExists)

// Repository stores sessions.
//
// AddAttendee appends attendeeID in one conditional write bounded by the
// session capacity. Update fails with common.ErrCapacityFull when the new
// capacity is below the number of registered attendees.
type Repository interface {
	Create(ctx context.Context, s *models.Session) (*models.Session, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	ListByConference(ctx context.Context, conferenceID string) ([]*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
	AddAttendee(ctx context.Context, id, attendeeID string) error
	RemoveAttendee(ctx context.Context, id, attendeeID string) error
}
