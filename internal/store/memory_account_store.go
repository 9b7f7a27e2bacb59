package store

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/validate"
	"catalog-service/pkg/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryAccountStore is an in-process AccountStore for development and tests.
// Uniqueness checks and mutations happen under the same write lock.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*accountDocument // key: account id
	hasher   auth.PasswordHasher
	decoy    string
	logger   *slog.Logger
}

func NewMemoryAccountStore(hasher auth.PasswordHasher, logger *slog.Logger) *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]*accountDocument),
		hasher:   hasher,
		decoy:    decoyHash(hasher),
		logger:   logger,
	}
}

func (m *MemoryAccountStore) Create(ctx context.Context, input domain.AccountInput) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "create", time.Now(), &res.Err)

	if msg := validate.Check(input); msg != "" {
		m.logger.WarnContext(ctx, "Account validation failed", slog.String("error", msg))
		return domain.Fail[*domain.Account](domain.FailureValidation, "%s", msg)
	}
	hash, err := m.hasher.Hash(input.Password)
	if err != nil {
		return persistenceFailure[*domain.Account](ctx, m.logger, "hash password", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(input.Username, input.Email, "") {
		m.logger.WarnContext(ctx, "Account already exists",
			slog.String("username", input.Username), slog.String("email", input.Email))
		return domain.Fail[*domain.Account](domain.FailureDuplicate, duplicateAccountMessage)
	}
	at := now()
	doc := &accountDocument{
		ID:               primitive.NewObjectID(),
		Username:         input.Username,
		Email:            input.Email,
		PasswordHash:     hash,
		FavoriteTitleIDs: []string{},
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	m.accounts[doc.ID.Hex()] = doc
	m.logger.InfoContext(ctx, "Account created", slog.String("accountID", doc.ID.Hex()))
	return domain.OK(cloneAccount(doc))
}

func (m *MemoryAccountStore) GetByID(ctx context.Context, id string) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "get_by_id", time.Now(), &res.Err)

	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, failure := m.lookup(ctx, id)
	if failure != nil {
		return domain.FailWith[*domain.Account](failure)
	}
	return domain.OK(cloneAccount(doc))
}

func (m *MemoryAccountStore) VerifyCredentials(ctx context.Context, email, password string) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "verify_credentials", time.Now(), &res.Err)

	m.mu.RLock()
	var found *accountDocument
	for _, doc := range m.accounts {
		if doc.Email == email {
			found = doc
			break
		}
	}
	var account *domain.Account
	var hash string
	if found != nil {
		account, hash = cloneAccount(found), found.PasswordHash
	}
	m.mu.RUnlock()

	if account == nil {
		m.hasher.Verify(password, m.decoy)
		m.logger.WarnContext(ctx, "Login attempt for unknown email")
		return domain.Fail[*domain.Account](domain.FailureInvalidCredentials, invalidCredentialsMessage)
	}
	if !m.hasher.Verify(password, hash) {
		m.logger.WarnContext(ctx, "Login attempt with wrong password", slog.String("accountID", account.ID))
		return domain.Fail[*domain.Account](domain.FailureInvalidCredentials, invalidCredentialsMessage)
	}
	return domain.OK(account)
}

func (m *MemoryAccountStore) ListAll(ctx context.Context) (res domain.Result[[]*domain.Account]) {
	defer track(CollectionAccounts, "list_all", time.Now(), &res.Err)

	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, doc := range m.accounts {
		accounts = append(accounts, cloneAccount(doc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Username < accounts[j].Username })
	return domain.OK(accounts)
}

func (m *MemoryAccountStore) Update(ctx context.Context, id string, patch domain.AccountPatch) (res domain.Result[*domain.Account]) {
	defer track(CollectionAccounts, "update", time.Now(), &res.Err)

	if _, ok := parseObjectID(id); !ok {
		return domain.Fail[*domain.Account](domain.FailureInvalidID, "invalid account id %q", id)
	}
	if msg := validate.Check(patch); msg != "" {
		m.logger.WarnContext(ctx, "Account patch validation failed", slog.String("accountID", id), slog.String("error", msg))
		return domain.Fail[*domain.Account](domain.FailureValidation, "%s", msg)
	}
	var hash string
	if patch.Password != nil {
		var err error
		if hash, err = m.hasher.Hash(*patch.Password); err != nil {
			return persistenceFailure[*domain.Account](ctx, m.logger, "hash password", err, slog.String("accountID", id))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, failure := m.lookup(ctx, id)
	if failure != nil {
		return domain.FailWith[*domain.Account](failure)
	}
	username, email := doc.Username, doc.Email
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if m.taken(username, email, id) {
		m.logger.WarnContext(ctx, "Account update violates uniqueness", slog.String("accountID", id))
		return domain.Fail[*domain.Account](domain.FailureDuplicate, duplicateAccountMessage)
	}
	doc.Username, doc.Email = username, email
	if hash != "" {
		doc.PasswordHash = hash
	}
	doc.UpdatedAt = now()
	m.logger.InfoContext(ctx, "Account updated", slog.String("accountID", id))
	return domain.OK(cloneAccount(doc))
}

func (m *MemoryAccountStore) Delete(ctx context.Context, id string) (res domain.Result[string]) {
	defer track(CollectionAccounts, "delete", time.Now(), &res.Err)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, failure := m.lookup(ctx, id); failure != nil {
		return domain.FailWith[string](failure)
	}
	delete(m.accounts, id)
	m.logger.InfoContext(ctx, "Account deleted", slog.String("accountID", id))
	return domain.OK(id)
}

func (m *MemoryAccountStore) AddFavorite(ctx context.Context, accountID, titleID string) (res domain.Result[string]) {
	defer track(CollectionAccounts, "add_favorite", time.Now(), &res.Err)

	if f := checkFavoriteIDs(accountID, titleID); f != nil {
		return domain.FailWith[string](f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, failure := m.lookup(ctx, accountID)
	if failure != nil {
		return domain.FailWith[string](failure)
	}
	if slices.Contains(doc.FavoriteTitleIDs, titleID) {
		m.logger.WarnContext(ctx, "Favorites unchanged", slog.String("accountID", accountID), slog.String("titleID", titleID))
		return domain.Fail[string](domain.FailureAlreadyFavorited, "title %s is already a favorite", titleID)
	}
	doc.FavoriteTitleIDs = append(doc.FavoriteTitleIDs, titleID)
	doc.UpdatedAt = now()
	m.logger.InfoContext(ctx, "Favorite added", slog.String("accountID", accountID), slog.String("titleID", titleID))
	return domain.OK(titleID)
}

func (m *MemoryAccountStore) RemoveFavorite(ctx context.Context, accountID, titleID string) (res domain.Result[string]) {
	defer track(CollectionAccounts, "remove_favorite", time.Now(), &res.Err)

	if f := checkFavoriteIDs(accountID, titleID); f != nil {
		return domain.FailWith[string](f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, failure := m.lookup(ctx, accountID)
	if failure != nil {
		return domain.FailWith[string](failure)
	}
	i := slices.Index(doc.FavoriteTitleIDs, titleID)
	if i < 0 {
		m.logger.WarnContext(ctx, "Favorites unchanged", slog.String("accountID", accountID), slog.String("titleID", titleID))
		return domain.Fail[string](domain.FailureNotFavorited, "title %s is not a favorite", titleID)
	}
	doc.FavoriteTitleIDs = slices.Delete(doc.FavoriteTitleIDs, i, i+1)
	doc.UpdatedAt = now()
	m.logger.InfoContext(ctx, "Favorite removed", slog.String("accountID", accountID), slog.String("titleID", titleID))
	return domain.OK(titleID)
}

func (m *MemoryAccountStore) ListFavoriteIDs(ctx context.Context, accountID string) (res domain.Result[[]string]) {
	defer track(CollectionAccounts, "list_favorite_ids", time.Now(), &res.Err)

	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, failure := m.lookup(ctx, accountID)
	if failure != nil {
		return domain.FailWith[[]string](failure)
	}
	return domain.OK(append([]string{}, doc.FavoriteTitleIDs...))
}

func (m *MemoryAccountStore) IsFavorite(ctx context.Context, accountID, titleID string) (res domain.Result[bool]) {
	defer track(CollectionAccounts, "is_favorite", time.Now(), &res.Err)

	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, failure := m.lookup(ctx, accountID)
	if failure != nil {
		return domain.FailWith[bool](failure)
	}
	return domain.OK(slices.Contains(doc.FavoriteTitleIDs, titleID))
}

// lookup must be called with the lock held.
func (m *MemoryAccountStore) lookup(ctx context.Context, id string) (*accountDocument, *domain.Failure) {
	if _, ok := parseObjectID(id); !ok {
		return nil, domain.Fail[struct{}](domain.FailureInvalidID, "invalid account id %q", id).Err
	}
	doc, ok := m.accounts[id]
	if !ok {
		m.logger.WarnContext(ctx, "Account not found", slog.String("accountID", id))
		return nil, domain.Fail[struct{}](domain.FailureNotFound, "account %s not found", id).Err
	}
	return doc, nil
}

// taken reports whether another account already uses username or email.
func (m *MemoryAccountStore) taken(username, email, exceptID string) bool {
	for id, doc := range m.accounts {
		if id != exceptID && (doc.Username == username || doc.Email == email) {
			return true
		}
	}
	return false
}

func cloneAccount(doc *accountDocument) *domain.Account {
	a := doc.toDomain()
	a.FavoriteTitleIDs = append([]string{}, doc.FavoriteTitleIDs...)
	return a
}

var _ AccountStore = (*MemoryAccountStore)(nil)
