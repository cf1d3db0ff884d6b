package attendees

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
	_, err := repo.Create(ctx, &models.Attendee{ID: "a-1", Name: "Grace", Email: "g@x.io", RegistrationDate: now})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Attendee{ID: "a-2", Name: "Other", Email: "g@x.io", RegistrationDate: now})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	require.NoError(t, repo.AddSession(ctx, "a-1", "s-1"))
	require.NoError(t, repo.AddSession(ctx, "a-1", "s-1"))
	got, err := repo.GetByEmail(ctx, "g@x.io")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, got.RegisteredSessions)

	require.NoError(t, repo.RemoveSession(ctx, "a-1", "s-1"))
	assert.ErrorIs(t, repo.RemoveSession(ctx, "missing", "s-1"), common.ErrorNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
