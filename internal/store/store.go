package store

import (
	"context"
	"log/slog"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
	"catalog-service/pkg/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Logical collection names.
const (
	CollectionTitles   = "titles"
	CollectionAccounts = "accounts"
	CollectionCredits  = "credits"
)

// TitleStore defines catalog operations on titles.
type TitleStore interface {
	Create(ctx context.Context, input domain.TitleInput) domain.Result[*domain.Title]
	GetByID(ctx context.Context, id string) domain.Result[*domain.TitleDetail]
	List(ctx context.Context, query domain.TitleQuery) domain.Result[[]*domain.Title]
	Update(ctx context.Context, id string, patch domain.TitlePatch) domain.Result[*domain.TitleDetail]
	Delete(ctx context.Context, id string) domain.Result[string]
	Statistics(ctx context.Context) domain.Result[*domain.TitleStatistics]
	Search(ctx context.Context, text string) domain.Result[[]*domain.Title]
}

// AccountStore defines operations on user accounts and their favorites.
type AccountStore interface {
	Create(ctx context.Context, input domain.AccountInput) domain.Result[*domain.Account]
	GetByID(ctx context.Context, id string) domain.Result[*domain.Account]
	VerifyCredentials(ctx context.Context, email, password string) domain.Result[*domain.Account]
	ListAll(ctx context.Context) domain.Result[[]*domain.Account]
	Update(ctx context.Context, id string, patch domain.AccountPatch) domain.Result[*domain.Account]
	Delete(ctx context.Context, id string) domain.Result[string]
	AddFavorite(ctx context.Context, accountID, titleID string) domain.Result[string]
	RemoveFavorite(ctx context.Context, accountID, titleID string) domain.Result[string]
	ListFavoriteIDs(ctx context.Context, accountID string) domain.Result[[]string]
	IsFavorite(ctx context.Context, accountID, titleID string) domain.Result[bool]
}

// invalidCredentialsMessage is shared by the unknown-email and wrong-password paths
// so the two cannot be told apart.
const invalidCredentialsMessage = "invalid email or password"

// decoyHash is verified against when no account has the given email, so an
// unknown email costs the same bcrypt comparison as a wrong password.
func decoyHash(hasher auth.PasswordHasher) string {
	hash, err := hasher.Hash("catalog-service decoy password")
	if err != nil {
		return ""
	}
	return hash
}

// checkFavoriteIDs rejects malformed account or title ids before a favorites mutation.
func checkFavoriteIDs(accountID, titleID string) *domain.Failure {
	if _, ok := parseObjectID(accountID); !ok {
		return domain.Fail[struct{}](domain.FailureInvalidID, "invalid account id %q", accountID).Err
	}
	if _, ok := parseObjectID(titleID); !ok {
		return domain.Fail[struct{}](domain.FailureInvalidID, "invalid title id %q", titleID).Err
	}
	return nil
}

func parseObjectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// now is millisecond-truncated UTC so values survive a round trip through BSON dates.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// track is deferred by repository methods with a pointer to their named
// result's failure, read once the method returns.
func track(collection, operation string, start time.Time, failure **domain.Failure) {
	kind := ""
	if *failure != nil {
		kind = string((*failure).Kind)
	}
	metrics.ObserveStoreOperation(collection, operation, start, kind)
}

func persistenceFailure[T any](ctx context.Context, logger *slog.Logger, operation string, err error, attrs ...any) domain.Result[T] {
	logger.ErrorContext(ctx, "Store operation failed", append([]any{slog.String("operation", operation), slog.String("error", err.Error())}, attrs...)...)
	return domain.Fail[T](domain.FailurePersistence, "failed to %s", operation)
}
