// Package conferences persists conferences together with the ids of the
// users who joined them.
package conferences

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

var (
	ErrDuplicateName     = fmt.Errorf("conference name %w", common.ErrorAlreadyExists)
	ErrAlreadyRegistered = fmt.Errorf("attendee %w", common.ErrorAlreadyExists)
)

// Repository stores conferences.
//
// AddAttendee is a single conditional write: it appends userID only when
// the user is not yet listed and the list is shorter than max_attendees.
// On refusal it reports ErrorNotFound, ErrAlreadyRegistered or
// common.ErrCapacityFull. RemoveAttendee reports common.ErrNotRegistered
// when userID is not listed. Update reports common.ErrCapacityFull when
// max_attendees would drop below the number of attendees.
type Repository interface {
	Create(ctx context.Context, c *models.Conference) (*models.Conference, error)
	GetByID(ctx context.Context, id string) (*models.Conference, error)
	GetByName(ctx context.Context, name string) (*models.Conference, error)
	List(ctx context.Context) ([]*models.Conference, error)
	Update(ctx context.Context, c *models.Conference) error
	Delete(ctx context.Context, id string) error
	AddAttendee(ctx context.Context, id, userID string) error
	RemoveAttendee(ctx context.Context, id, userID string) error
}
