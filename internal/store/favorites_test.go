package store

import (
	"context"
	"testing"

	"catalog-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHydrateFavorites_SkipsDeletedTitle(t *testing.T) {
	titles, accounts := newTestStores()
	ctx := context.Background()
	svc := NewFavoritesService(accounts, titles, discardLogger())

	neo := mustCreateAccount(t, accounts, "neo")
	dune := mustCreateTitle(t, titles, domain.TitleInput{Title: "Dune", Kind: domain.KindMovie})
	gone := mustCreateTitle(t, titles, domain.TitleInput{Title: "Gone", Kind: domain.KindMovie})
	titles.AddCredit(dune.ID, domain.Credit{Name: "Zendaya", Role: domain.RoleActor})

	require.True(t, accounts.AddFavorite(ctx, neo.ID, gone.ID).Success)
	require.True(t, accounts.AddFavorite(ctx, neo.ID, dune.ID).Success)
	require.True(t, titles.Delete(ctx, gone.ID).Success)

	res := svc.HydrateFavorites(ctx, neo.ID)
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, dune.ID, res.Data[0].ID)
	assert.Len(t, res.Data[0].Actors, 1)

	// Deleting a title does not touch the stored favorites.
	assert.Equal(t, []string{gone.ID, dune.ID}, accounts.ListFavoriteIDs(ctx, neo.ID).Data)
}

func TestHydrateFavorites_EmptyAndMissingAccount(t *testing.T) {
	titles, accounts := newTestStores()
	ctx := context.Background()
	svc := NewFavoritesService(accounts, titles, discardLogger())
	neo := mustCreateAccount(t, accounts, "neo")

	empty := svc.HydrateFavorites(ctx, neo.ID)
	require.True(t, empty.Success)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)

	assert.Equal(t, domain.FailureNotFound, svc.HydrateFavorites(ctx, primitive.NewObjectID().Hex()).Kind())
	assert.Equal(t, domain.FailureInvalidID, svc.HydrateFavorites(ctx, "nope").Kind())
}

type failingTitleStore struct {
	TitleStore
}

func (failingTitleStore) GetByID(context.Context, string) domain.Result[*domain.TitleDetail] {
	return domain.Fail[*domain.TitleDetail](domain.FailurePersistence, "failed to get title")
}

func TestHydrateFavorites_PropagatesPersistenceFailure(t *testing.T) {
	_, accounts := newTestStores()
	ctx := context.Background()
	svc := NewFavoritesService(accounts, failingTitleStore{}, discardLogger())
	neo := mustCreateAccount(t, accounts, "neo")
	require.True(t, accounts.AddFavorite(ctx, neo.ID, primitive.NewObjectID().Hex()).Success)

	res := svc.HydrateFavorites(ctx, neo.ID)
	assert.Equal(t, domain.FailurePersistence, res.Kind())
}
