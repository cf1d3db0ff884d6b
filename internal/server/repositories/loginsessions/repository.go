package loginsessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

// Repository stores server-side login sessions referenced by the session
// cookie. Find returns common.ErrorNotFound for unknown ids; expiry is
// checked by the caller.
type Repository interface {
	Create(ctx context.Context, s *models.LoginSession) error
	Find(ctx context.Context, id string) (*models.LoginSession, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
