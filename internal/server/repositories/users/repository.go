// Package users persists user accounts. Accounts are never hard-deleted;
// deactivation flips the active flag.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

var (
	ErrDuplicateUsername = fmt.Errorf("username %w", common.ErrorAlreadyExists)
	ErrDuplicateEmail    = fmt.Errorf("email %w", common.ErrorAlreadyExists)
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
}
