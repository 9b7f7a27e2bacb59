package store

import (
	"context"
	"math"
	"testing"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"
)

const testNS = "catalog.titles"

// asDoc re-encodes a stored document struct as the bson.D a mocked server would return.
func asDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func cursor(docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, docs...)
}

func commandError() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"})
}

func duplicateKeyError() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func newMockTitleStore(mt *mtest.T) *MongoTitleStore {
	return NewMongoTitleStore(mt.Coll, mt.DB.Collection(CollectionCredits), discardLogger())
}

func TestMongoTitleStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		res := newMockTitleStore(mt).Create(ctx, domain.TitleInput{Title: "Dune", Kind: domain.KindMovie, ReleaseYear: ptr(2021)})
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, "Dune", res.Data.Title)
		assert.NotEmpty(mt, res.Data.ID)
		assert.Nil(mt, res.Data.RuntimeMinutes)
	})

	mt.Run("create rejects invalid input without a round trip", func(mt *mtest.T) {
		res := newMockTitleStore(mt).Create(ctx, domain.TitleInput{Title: "", Kind: "book"})
		assert.Equal(mt, domain.FailureValidation, res.Kind())
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKeyError())
		res := newMockTitleStore(mt).Create(ctx, domain.TitleInput{Title: "Dune", Kind: domain.KindMovie, ExternalRatingID: ptr("tt1160419")})
		assert.Equal(mt, domain.FailureDuplicate, res.Kind())
	})

	mt.Run("create persistence failure", func(mt *mtest.T) {
		mt.AddMockResponses(commandError())
		res := newMockTitleStore(mt).Create(ctx, domain.TitleInput{Title: "Dune", Kind: domain.KindMovie})
		assert.Equal(mt, domain.FailurePersistence, res.Kind())
		assert.Equal(mt, "failed to create title", res.Err.Message)
	})

	mt.Run("get by id joins credits", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		row := titleWithCredits{
			titleDocument: titleDocument{ID: id, Title: "Dune", Kind: "movie", Genres: []string{"scifi"}, ProductionCountries: []string{}, CreatedAt: at, UpdatedAt: at},
			Credits: []creditDocument{
				{ID: primitive.NewObjectID(), TitleID: id, Name: "Zendaya", Role: "ACTOR", Character: "Chani"},
				{ID: primitive.NewObjectID(), TitleID: id, Name: "Denis Villeneuve", Role: "DIRECTOR"},
			},
		}
		mt.AddMockResponses(cursor(asDoc(mt.T, row)))

		res := newMockTitleStore(mt).GetByID(ctx, id.Hex())
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, id.Hex(), res.Data.ID)
		assert.True(mt, at.Equal(res.Data.CreatedAt))
		require.Len(mt, res.Data.Actors, 1)
		assert.Equal(mt, "Chani", res.Data.Actors[0].Character)
		require.Len(mt, res.Data.Directors, 1)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		mt.AddMockResponses(cursor())
		res := newMockTitleStore(mt).GetByID(ctx, primitive.NewObjectID().Hex())
		assert.Equal(mt, domain.FailureNotFound, res.Kind())
	})

	mt.Run("get by id malformed", func(mt *mtest.T) {
		res := newMockTitleStore(mt).GetByID(ctx, "42")
		assert.Equal(mt, domain.FailureInvalidID, res.Kind())
	})

	mt.Run("list paginates", func(mt *mtest.T) {
		docs := []bson.D{
			asDoc(mt.T, titleDocument{ID: primitive.NewObjectID(), Title: "B", Kind: "movie", CreatedAt: at, UpdatedAt: at}),
			asDoc(mt.T, titleDocument{ID: primitive.NewObjectID(), Title: "A", Kind: "show", CreatedAt: at, UpdatedAt: at}),
		}
		mt.AddMockResponses(
			cursor(bson.D{{Key: "n", Value: int32(25)}}),
			cursor(docs...),
		)

		res := newMockTitleStore(mt).List(ctx, domain.TitleQuery{PageRequest: domain.PageRequest{Page: 3, PageSize: 10}})
		require.True(mt, res.Success, "%v", res.Err)
		require.Len(mt, res.Data, 2)
		assert.Equal(mt, []string{}, res.Data[0].Genres)
		assert.Equal(mt, domain.Pagination{Page: 3, PageSize: 10, TotalCount: 25, TotalPages: 3}, *res.Pagination)
	})

	mt.Run("list far past the last page", func(mt *mtest.T) {
		mt.AddMockResponses(
			cursor(bson.D{{Key: "n", Value: int32(25)}}),
			cursor(),
		)

		res := newMockTitleStore(mt).List(ctx, domain.TitleQuery{PageRequest: domain.PageRequest{Page: math.MaxInt, PageSize: 10}})
		require.True(mt, res.Success, "%v", res.Err)
		assert.Empty(mt, res.Data)
		assert.Equal(mt, int64(3), res.Pagination.TotalPages)

		mt.GetStartedEvent() // count
		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "find", find.CommandName)
		assert.Equal(mt, int64(MaxPage-1)*10, find.Command.Lookup("skip").AsInt64())
	})

	mt.Run("list count failure", func(mt *mtest.T) {
		mt.AddMockResponses(commandError())
		res := newMockTitleStore(mt).List(ctx, domain.TitleQuery{})
		assert.Equal(mt, domain.FailurePersistence, res.Kind())
	})

	mt.Run("update not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		res := newMockTitleStore(mt).Update(ctx, primitive.NewObjectID().Hex(), domain.TitlePatch{RuntimeMinutes: ptr(155)})
		assert.Equal(mt, domain.FailureNotFound, res.Kind())
	})

	mt.Run("update returns joined view", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		row := titleWithCredits{titleDocument: titleDocument{ID: id, Title: "Dune", Kind: "movie", RuntimeMinutes: ptr(155), CreatedAt: at, UpdatedAt: at}}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			cursor(asDoc(mt.T, row)),
		)
		res := newMockTitleStore(mt).Update(ctx, id.Hex(), domain.TitlePatch{RuntimeMinutes: ptr(155)})
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, 155, *res.Data.RuntimeMinutes)
		assert.Equal(mt, "Dune", res.Data.Title.Title)
	})

	mt.Run("update invalid patch", func(mt *mtest.T) {
		res := newMockTitleStore(mt).Update(ctx, primitive.NewObjectID().Hex(), domain.TitlePatch{RuntimeMinutes: ptr(0)})
		assert.Equal(mt, domain.FailureValidation, res.Kind())
	})

	mt.Run("delete", func(mt *mtest.T) {
		id := primitive.NewObjectID().Hex()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		res := newMockTitleStore(mt).Delete(ctx, id)
		require.True(mt, res.Success)
		assert.Equal(mt, id, res.Data)
	})

	mt.Run("delete not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		res := newMockTitleStore(mt).Delete(ctx, primitive.NewObjectID().Hex())
		assert.Equal(mt, domain.FailureNotFound, res.Kind())
	})

	mt.Run("statistics on empty collection", func(mt *mtest.T) {
		mt.AddMockResponses(cursor())
		res := newMockTitleStore(mt).Statistics(ctx)
		require.True(mt, res.Success)
		assert.Equal(mt, &domain.TitleStatistics{}, res.Data)
	})

	mt.Run("statistics", func(mt *mtest.T) {
		mt.AddMockResponses(cursor(bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_count", Value: int64(3)},
			{Key: "average_rating", Value: 8.5},
			{Key: "average_runtime", Value: nil},
			{Key: "show_count", Value: int64(1)},
			{Key: "movie_count", Value: int64(2)},
		}))
		res := newMockTitleStore(mt).Statistics(ctx)
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, int64(3), res.Data.TotalCount)
		assert.Equal(mt, 8.5, *res.Data.AverageRating)
		assert.Nil(mt, res.Data.AverageRuntime)
		assert.Equal(mt, int64(2), res.Data.MovieCount)
	})

	mt.Run("search", func(mt *mtest.T) {
		mt.AddMockResponses(cursor(asDoc(mt.T, titleDocument{ID: primitive.NewObjectID(), Title: "Dune", Kind: "movie", CreatedAt: at, UpdatedAt: at})))
		res := newMockTitleStore(mt).Search(ctx, "dun")
		require.True(mt, res.Success, "%v", res.Err)
		require.Len(mt, res.Data, 1)
		assert.Equal(mt, "Dune", res.Data[0].Title)
	})
}

func TestMongoAccountStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	newStore := func(mt *mtest.T) *MongoAccountStore {
		return NewMongoAccountStore(mt.Coll, hasher, discardLogger())
	}
	hash, err := hasher.Hash("secret1")
	require.NoError(t, err)
	stored := accountDocument{
		ID:               primitive.NewObjectID(),
		Username:         "neo",
		Email:            "neo@example.com",
		PasswordHash:     hash,
		FavoriteTitleIDs: []string{"665f1c2e8a1b2c3d4e5f6071"},
		CreatedAt:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	accountID := stored.ID.Hex()
	titleID := primitive.NewObjectID().Hex()

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		res := newStore(mt).Create(ctx, domain.AccountInput{Username: "neo", Email: "neo@example.com", Password: "secret1"})
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, []string{}, res.Data.FavoriteTitleIDs)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKeyError())
		res := newStore(mt).Create(ctx, domain.AccountInput{Username: "neo", Email: "neo@example.com", Password: "secret1"})
		assert.Equal(mt, domain.FailureDuplicate, res.Kind())
	})

	mt.Run("get by id", func(mt *mtest.T) {
		mt.AddMockResponses(cursor(asDoc(mt.T, stored)))
		res := newStore(mt).GetByID(ctx, accountID)
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, "neo", res.Data.Username)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		mt.AddMockResponses(cursor())
		assert.Equal(mt, domain.FailureNotFound, newStore(mt).GetByID(ctx, accountID).Kind())
	})

	mt.Run("verify credentials", func(mt *mtest.T) {
		mt.AddMockResponses(cursor(asDoc(mt.T, stored)))
		res := newStore(mt).VerifyCredentials(ctx, "neo@example.com", "secret1")
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, accountID, res.Data.ID)
	})

	mt.Run("verify credentials failures are identical", func(mt *mtest.T) {
		mt.AddMockResponses(cursor(), cursor(asDoc(mt.T, stored)))
		s := newStore(mt)
		unknown := s.VerifyCredentials(ctx, "nobody@example.com", "secret1")
		wrong := s.VerifyCredentials(ctx, "neo@example.com", "bad-password")
		require.NotNil(mt, unknown.Err)
		require.NotNil(mt, wrong.Err)
		assert.Equal(mt, domain.FailureInvalidCredentials, unknown.Kind())
		assert.Equal(mt, *unknown.Err, *wrong.Err)
	})

	mt.Run("verify credentials compares unknown emails against a decoy hash", func(mt *mtest.T) {
		recorder := &recordingHasher{PasswordHasher: hasher}
		mt.AddMockResponses(cursor())
		res := NewMongoAccountStore(mt.Coll, recorder, discardLogger()).VerifyCredentials(ctx, "nobody@example.com", "secret1")
		assert.Equal(mt, domain.FailureInvalidCredentials, res.Kind())
		require.Len(mt, recorder.verified, 1)
		_, err := bcrypt.Cost([]byte(recorder.verified[0]))
		assert.NoError(mt, err)
	})

	mt.Run("list all", func(mt *mtest.T) {
		other := stored
		other.ID = primitive.NewObjectID()
		other.Username = "trinity"
		mt.AddMockResponses(cursor(asDoc(mt.T, stored), asDoc(mt.T, other)))
		res := newStore(mt).ListAll(ctx)
		require.True(mt, res.Success, "%v", res.Err)
		assert.Len(mt, res.Data, 2)
	})

	mt.Run("update", func(mt *mtest.T) {
		updated := stored
		updated.Email = "thomas@example.com"
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: asDoc(mt.T, updated)}))
		res := newStore(mt).Update(ctx, accountID, domain.AccountPatch{Email: ptr("thomas@example.com")})
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, "thomas@example.com", res.Data.Email)
	})

	mt.Run("update duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Message: "E11000 duplicate key error"}))
		res := newStore(mt).Update(ctx, accountID, domain.AccountPatch{Username: ptr("trinity")})
		assert.Equal(mt, domain.FailureDuplicate, res.Kind())
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.True(mt, newStore(mt).Delete(ctx, accountID).Success)
	})

	mt.Run("add favorite", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		res := newStore(mt).AddFavorite(ctx, accountID, titleID)
		require.True(mt, res.Success, "%v", res.Err)
		assert.Equal(mt, titleID, res.Data)
	})

	mt.Run("add favorite already present", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			cursor(bson.D{{Key: "n", Value: int32(1)}}),
		)
		res := newStore(mt).AddFavorite(ctx, accountID, titleID)
		assert.Equal(mt, domain.FailureAlreadyFavorited, res.Kind())
	})

	mt.Run("add favorite unknown account", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			cursor(),
		)
		res := newStore(mt).AddFavorite(ctx, accountID, titleID)
		assert.Equal(mt, domain.FailureNotFound, res.Kind())
	})

	mt.Run("add favorite malformed title id", func(mt *mtest.T) {
		res := newStore(mt).AddFavorite(ctx, accountID, "tt1160419")
		assert.Equal(mt, domain.FailureInvalidID, res.Kind())
	})

	mt.Run("remove favorite not present", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			cursor(bson.D{{Key: "n", Value: int32(1)}}),
		)
		res := newStore(mt).RemoveFavorite(ctx, accountID, titleID)
		assert.Equal(mt, domain.FailureNotFavorited, res.Kind())
	})

	mt.Run("favorite ids and membership", func(mt *mtest.T) {
		projected := bson.D{{Key: "_id", Value: stored.ID}, {Key: "favorite_title_ids", Value: bson.A{stored.FavoriteTitleIDs[0]}}}
		mt.AddMockResponses(cursor(projected), cursor(projected), cursor(projected))
		s := newStore(mt)

		ids := s.ListFavoriteIDs(ctx, accountID)
		require.True(mt, ids.Success, "%v", ids.Err)
		assert.Equal(mt, stored.FavoriteTitleIDs, ids.Data)
		assert.True(mt, s.IsFavorite(ctx, accountID, stored.FavoriteTitleIDs[0]).Data)
		assert.False(mt, s.IsFavorite(ctx, accountID, titleID).Data)
	})
}
