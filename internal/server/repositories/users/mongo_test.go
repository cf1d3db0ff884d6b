package users

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
	u := &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: "h", FullName: "Alice", IsActive: true, CreatedAt: now, UpdatedAt: now}
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{ID: "u-2", Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.Create(ctx, &models.User{ID: "u-3", Username: "carol", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.UpdateLastLogin(ctx, "u-1", now))
	require.NoError(t, repo.SetActive(ctx, "u-1", false))
	got, err = repo.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.LastLogin)

	list, err := repo.ListByIDs(ctx, []string{"u-1", "missing"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, repo.SetActive(ctx, "missing", true), common.ErrorNotFound)
}
