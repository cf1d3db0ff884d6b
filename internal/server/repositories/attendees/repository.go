// Package attendees persists external participants who may not have a login.
package attendees

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

var ErrDuplicateEmail = fmt.Errorf("attendee email %w", common.ErrorAlreadyExists)

// Repository stores attendees. AddSession and RemoveSession are idempotent
// on the session list and only fail when the attendee is missing.
type Repository interface {
	Create(ctx context.Context, a *models.Attendee) (*models.Attendee, error)
	GetByID(ctx context.Context, id string) (*models.Attendee, error)
	GetByEmail(ctx context.Context, email string) (*models.Attendee, error)
	List(ctx context.Context) ([]*models.Attendee, error)
	AddSession(ctx context.Context, id, sessionID string) error
	RemoveSession(ctx context.Context, id, sessionID string) error
}
