// Package payments persists simulated conference payments.
package payments

import (
	"context"

	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

// Repository stores payments. Update only applies when the stored status
// still equals from; otherwise it reports common.ErrVersionConflict, which
// keeps a payment from being processed twice.
type Repository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Payment, error)
	Update(ctx context.Context, p *models.Payment, from string) error
}
