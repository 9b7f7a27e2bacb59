package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/validate"
	"catalog-service/pkg/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAccountStore implements AccountStore on the accounts collection.
type MongoAccountStore struct {
	accounts *mongo.Collection
	hasher   auth.PasswordHasher
	decoy    string
	logger   *slog.Logger
}

// NewMongoAccountStore hashes a decoy password once, at the hasher's cost.
func NewMongoAccountStore(accounts *mongo.Collection, hasher auth.PasswordHasher, logger *slog.Logger) *MongoAccountStore {
	return &MongoAccountStore{accounts: accounts, hasher: hasher, decoy: decoyHash(hasher), logger: logger}
}

const duplicateAccountMessage = "an account with this username or email already exists"

// Create hashes the password and inserts the account. Uniqueness is left to
// the unique indexes on username and email.
func (s *MongoAccountStore) Create(ctx context.Context, input domain.AccountInput) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "create", time.Now(), &res.Err)

	if msg := validate.Check(input); msg != "" {
		s.logger.WarnContext(ctx, "Account validation failed", slog.String("error", msg))
		return domain.Fail[*domain.Account](domain.FailureValidation, "%s", msg)
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return persistenceFailure[*domain.Account](ctx, s.logger, "hash password", err)
	}

	at := now()
	doc := accountDocument{
		ID:               primitive.NewObjectID(),
		Username:         input.Username,
		Email:            input.Email,
		PasswordHash:     hash,
		FavoriteTitleIDs: []string{},
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	s.logger.DebugContext(ctx, "Inserting account", slog.String("accountID", doc.ID.Hex()), slog.String("username", doc.Username))
	if _, err := s.accounts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.WarnContext(ctx, "Account already exists (unique index violation)",
				slog.String("username", input.Username), slog.String("email", input.Email))
			return domain.Fail[*domain.Account](domain.FailureDuplicate, duplicateAccountMessage)
		}
		return persistenceFailure[*domain.Account](ctx, s.logger, "create account", err)
	}
	s.logger.InfoContext(ctx, "Account created", slog.String("accountID", doc.ID.Hex()))
	return domain.OK(doc.toDomain())
}

func (s *MongoAccountStore) GetByID(ctx context.Context, id string) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "get_by_id", time.Now(), &res.Err)

	oid, ok := parseObjectID(id)
	if !ok {
		return domain.Fail[*domain.Account](domain.FailureInvalidID, "invalid account id %q", id)
	}
	var doc accountDocument
	err := s.accounts.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.WarnContext(ctx, "Account not found", slog.String("accountID", id))
			return domain.Fail[*domain.Account](domain.FailureNotFound, "account %s not found", id)
		}
		return persistenceFailure[*domain.Account](ctx, s.logger, "get account", err, slog.String("accountID", id))
	}
	return domain.OK(doc.toDomain())
}

// VerifyCredentials fails identically for an unknown email and a wrong password.
func (s *MongoAccountStore) VerifyCredentials(ctx context.Context, email, password string) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "verify_credentials", time.Now(), &res.Err)

	var doc accountDocument
	err := s.accounts.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.hasher.Verify(password, s.decoy)
			s.logger.WarnContext(ctx, "Login attempt for unknown email")
			return domain.Fail[*domain.Account](domain.FailureInvalidCredentials, invalidCredentialsMessage)
		}
		return persistenceFailure[*domain.Account](ctx, s.logger, "verify credentials", err)
	}
	if !s.hasher.Verify(password, doc.PasswordHash) {
		s.logger.WarnContext(ctx, "Login attempt with wrong password", slog.String("accountID", doc.ID.Hex()))
		return domain.Fail[*domain.Account](domain.FailureInvalidCredentials, invalidCredentialsMessage)
	}
	return domain.OK(doc.toDomain())
}

// ListAll returns every account ordered by username.
func (s *MongoAccountStore) ListAll(ctx context.Context) (res domain.Result[[]*domain.Account]) {
	defer track(CollectionAccounts, "list_all", time.Now(), &res.Err)

	cur, err := s.accounts.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return persistenceFailure[[]*domain.Account](ctx, s.logger, "list accounts", err)
	}
	var docs []accountDocument
	if err := cur.All(ctx, &docs); err != nil {
		return persistenceFailure[[]*domain.Account](ctx, s.logger, "list accounts", err)
	}
	accounts := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.toDomain())
	}
	return domain.OK(accounts)
}

// Update applies a partial patch. A provided password is hashed again.
func (s *MongoAccountStore) Update(ctx context.Context, id string, patch domain.AccountPatch) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "update", time.Now(), &res.Err)

	oid, ok := parseObjectID(id)
	if !ok {
		return domain.Fail[*domain.Account](domain.FailureInvalidID, "invalid account id %q", id)
	}
	if msg := validate.Check(patch); msg != "" {
		s.logger.WarnContext(ctx, "Account patch validation failed", slog.String("accountID", id), slog.String("error", msg))
		return domain.Fail[*domain.Account](domain.FailureValidation, "%s", msg)
	}
	var hash string
	if patch.Password != nil {
		var err error
		if hash, err = s.hasher.Hash(*patch.Password); err != nil {
			return persistenceFailure[*domain.Account](ctx, s.logger, "hash password", err, slog.String("accountID", id))
		}
	}

	var doc accountDocument
	err := s.accounts.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: accountPatchSet(patch, hash, now())}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			s.logger.WarnContext(ctx, "No account found to update", slog.String("accountID", id))
			return domain.Fail[*domain.Account](domain.FailureNotFound, "account %s not found", id)
		case mongo.IsDuplicateKeyError(err):
			s.logger.WarnContext(ctx, "Account update violates unique index", slog.String("accountID", id))
			return domain.Fail[*domain.Account](domain.FailureDuplicate, duplicateAccountMessage)
		}
		return persistenceFailure[*domain.Account](ctx, s.logger, "update account", err, slog.String("accountID", id))
	}
	s.logger.InfoContext(ctx, "Account updated", slog.String("accountID", id))
	return domain.OK(doc.toDomain())
}

func (s *MongoAccountStore) Delete(ctx context.Context, id string) (res domain.Result[string]) {
	defer track(CollectionAccounts, "delete", time.Now(), &res.Err)

	oid, ok := parseObjectID(id)
	if !ok {
		return domain.Fail[string](domain.FailureInvalidID, "invalid account id %q", id)
	}
	result, err := s.accounts.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return persistenceFailure[string](ctx, s.logger, "delete account", err, slog.String("accountID", id))
	}
	if result.DeletedCount == 0 {
		s.logger.WarnContext(ctx, "No account found to delete", slog.String("accountID", id))
		return domain.Fail[string](domain.FailureNotFound, "account %s not found", id)
	}
	s.logger.InfoContext(ctx, "Account deleted", slog.String("accountID", id))
	return domain.OK(id)
}

// AddFavorite appends titleID unless the account already holds it. The
// membership check and the push are one conditional update.
func (s *MongoAccountStore) AddFavorite(ctx context.Context, accountID, titleID string) (res domain.Result[string]) {
	defer track(CollectionAccounts, "add_favorite", time.Now(), &res.Err)

	if f := checkFavoriteIDs(accountID, titleID); f != nil {
		return domain.FailWith[string](f)
	}
	oid, _ := parseObjectID(accountID)
	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "favorite_title_ids", Value: bson.D{{Key: "$ne", Value: titleID}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "favorite_title_ids", Value: titleID}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now()}}},
	}
	result, err := s.accounts.UpdateOne(ctx, filter, update)
	if err != nil {
		return persistenceFailure[string](ctx, s.logger, "add favorite", err,
			slog.String("accountID", accountID), slog.String("titleID", titleID))
	}
	if result.MatchedCount == 0 {
		return s.explainNoMatch(ctx, accountID, domain.FailureAlreadyFavorited, "title %s is already a favorite", titleID)
	}
	s.logger.InfoContext(ctx, "Favorite added", slog.String("accountID", accountID), slog.String("titleID", titleID))
	return domain.OK(titleID)
}

// RemoveFavorite pulls titleID if the account holds it.
func (s *MongoAccountStore) RemoveFavorite(ctx context.Context, accountID, titleID string) (res domain.Result[string]) {
	defer track(CollectionAccounts, "remove_favorite", time.Now(), &res.Err)

	if f := checkFavoriteIDs(accountID, titleID); f != nil {
		return domain.FailWith[string](f)
	}
	oid, _ := parseObjectID(accountID)
	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "favorite_title_ids", Value: titleID},
	}
	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "favorite_title_ids", Value: titleID}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now()}}},
	}
	result, err := s.accounts.UpdateOne(ctx, filter, update)
	if err != nil {
		return persistenceFailure[string](ctx, s.logger, "remove favorite", err,
			slog.String("accountID", accountID), slog.String("titleID", titleID))
	}
	if result.MatchedCount == 0 {
		return s.explainNoMatch(ctx, accountID, domain.FailureNotFavorited, "title %s is not a favorite", titleID)
	}
	s.logger.InfoContext(ctx, "Favorite removed", slog.String("accountID", accountID), slog.String("titleID", titleID))
	return domain.OK(titleID)
}

// explainNoMatch tells a missing account apart from a failed favorites
// condition after a conditional update matched nothing.
func (s *MongoAccountStore) explainNoMatch(ctx context.Context, accountID string, kind domain.FailureKind, format, titleID string) domain.Result[string] {
	oid, _ := parseObjectID(accountID)
	n, err := s.accounts.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return persistenceFailure[string](ctx, s.logger, "check account", err, slog.String("accountID", accountID))
	}
	if n == 0 {
		s.logger.WarnContext(ctx, "Account not found", slog.String("accountID", accountID))
		return domain.Fail[string](domain.FailureNotFound, "account %s not found", accountID)
	}
	s.logger.WarnContext(ctx, "Favorites unchanged", slog.String("accountID", accountID),
		slog.String("titleID", titleID), slog.String("kind", string(kind)))
	return domain.Fail[string](kind, format, titleID)
}

func (s *MongoAccountStore) ListFavoriteIDs(ctx context.Context, accountID string) (res domain.Result[[]string]) {
	defer track(CollectionAccounts, "list_favorite_ids", time.Now(), &res.Err)

	doc, failure := s.favorites(ctx, accountID)
	if failure != nil {
		return domain.FailWith[[]string](failure)
	}
	return domain.OK(nonNil(doc.FavoriteTitleIDs))
}

func (s *MongoAccountStore) IsFavorite(ctx context.Context, accountID, titleID string) (res domain.Result[bool]) {
	defer track(CollectionAccounts, "is_favorite", time.Now(), &res.Err)

	doc, failure := s.favorites(ctx, accountID)
	if failure != nil {
		return domain.FailWith[bool](failure)
	}
	for _, id := range doc.FavoriteTitleIDs {
		if id == titleID {
			return domain.OK(true)
		}
	}
	return domain.OK(false)
}

// favorites loads only the favorites list of one account.
func (s *MongoAccountStore) favorites(ctx context.Context, accountID string) (*accountDocument, *domain.Failure) {
	oid, ok := parseObjectID(accountID)
	if !ok {
		return nil, domain.Fail[struct{}](domain.FailureInvalidID, "invalid account id %q", accountID).Err
	}
	var doc accountDocument
	opts := options.FindOne().SetProjection(bson.D{{Key: "favorite_title_ids", Value: 1}})
	if err := s.accounts.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.WarnContext(ctx, "Account not found", slog.String("accountID", accountID))
			return nil, domain.Fail[struct{}](domain.FailureNotFound, "account %s not found", accountID).Err
		}
		return nil, persistenceFailure[struct{}](ctx, s.logger, "load favorites", err, slog.String("accountID", accountID)).Err
	}
	return &doc, nil
}

var _ AccountStore = (*MongoAccountStore)(nil)
