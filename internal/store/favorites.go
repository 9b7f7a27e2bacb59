package store

import (
	"context"
	"log/slog"

	"catalog-service/internal/domain"
)

// FavoritesService joins an account's favorite ids with the title catalog.
type FavoritesService struct {
	accounts AccountStore
	titles   TitleStore
	logger   *slog.Logger
}

func NewFavoritesService(accounts AccountStore, titles TitleStore, logger *slog.Logger) *FavoritesService {
	return &FavoritesService{accounts: accounts, titles: titles, logger: logger}
}

// HydrateFavorites resolves each favorite id to its detailed title, in list
// order. Ids whose title is gone or malformed are skipped; a persistence
// failure on any title aborts the whole call.
// TODO: resolve ids with a single $in query once favorites lists grow large.
func (s *FavoritesService) HydrateFavorites(ctx context.Context, accountID string) domain.Result[[]*domain.TitleDetail] {
	ids := s.accounts.ListFavoriteIDs(ctx, accountID)
	if !ids.Success {
		return domain.FailWith[[]*domain.TitleDetail](ids.Err)
	}

	titles := make([]*domain.TitleDetail, 0, len(ids.Data))
	for _, id := range ids.Data {
		res := s.titles.GetByID(ctx, id)
		switch res.Kind() {
		case "":
			titles = append(titles, res.Data)
		case domain.FailureNotFound, domain.FailureInvalidID:
			s.logger.WarnContext(ctx, "Skipping dangling favorite",
				slog.String("accountID", accountID), slog.String("titleID", id), slog.String("kind", string(res.Kind())))
		default:
			return domain.FailWith[[]*domain.TitleDetail](res.Err)
		}
	}
	return domain.OK(titles)
}
