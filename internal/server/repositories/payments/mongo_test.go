package payments

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/mongox"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoRepository(t *testing.T) {
	db := mongox.OpenTestDatabase(t)
	ctx := context.Background()

	repo := NewMongoRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	older := &models.Payment{ID: "p-1", UserID: "u-1", Amount: 5, Status: models.PaymentPending, CreatedAt: now.Add(-time.Hour)}
	newer := &models.Payment{ID: "p-2", UserID: "u-1", Amount: 5, Status: models.PaymentPending, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	list, err := repo.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p-2", list[0].ID)

	older.Status = models.PaymentCompleted
	older.ProcessedAt = &now
	require.NoError(t, repo.Update(ctx, older, models.PaymentPending))
	assert.ErrorIs(t, repo.Update(ctx, older, models.PaymentPending), common.ErrVersionConflict)

	got, err := repo.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, got.Status)
	require.NotNil(t, got.ProcessedAt)
}
