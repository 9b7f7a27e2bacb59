package store

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/validate"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type titleRecord struct {
	title *domain.Title
	seq   uint64
}

// MemoryTitleStore is an in-process TitleStore for development and tests.
// It mirrors the Mongo repository's semantics, including the unique
// external_rating_id and newest-first ordering.
type MemoryTitleStore struct {
	mu      sync.RWMutex
	titles  map[string]*titleRecord
	credits map[string][]domain.Credit // key: title id
	seq     uint64
	logger  *slog.Logger
}

func NewMemoryTitleStore(logger *slog.Logger) *MemoryTitleStore {
	return &MemoryTitleStore{
		titles:  make(map[string]*titleRecord),
		credits: make(map[string][]domain.Credit),
		logger:  logger,
	}
}

// AddCredit attaches a cast or crew entry to a title. The title need not exist,
// matching the unenforced reference in the credits collection.
func (m *MemoryTitleStore) AddCredit(titleID string, c domain.Credit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	m.credits[titleID] = append(m.credits[titleID], c)
}

func (m *MemoryTitleStore) Create(ctx context.Context, input domain.TitleInput) (res domain.Result[*domain.Title]) {
	defer track(CollectionTitles, "create", time.Now(), &res.Err)

	if msg := validate.Check(input); msg != "" {
		m.logger.WarnContext(ctx, "Title validation failed", slog.String("error", msg))
		return domain.Fail[*domain.Title](domain.FailureValidation, "%s", msg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if input.ExternalRatingID != nil && m.externalIDTaken(*input.ExternalRatingID, "") {
		m.logger.WarnContext(ctx, "Title already exists", slog.String("externalRatingID", *input.ExternalRatingID))
		return domain.Fail[*domain.Title](domain.FailureDuplicate, "a title with this external rating id already exists")
	}

	doc := newTitleDocument(input, now())
	t := doc.toDomain()
	t.Genres = append([]string{}, t.Genres...)
	t.ProductionCountries = append([]string{}, t.ProductionCountries...)
	m.seq++
	m.titles[t.ID] = &titleRecord{title: t, seq: m.seq}
	m.logger.InfoContext(ctx, "Title created", slog.String("titleID", t.ID))
	return domain.OK(cloneTitle(t))
}

func (m *MemoryTitleStore) GetByID(ctx context.Context, id string) (res domain.Result[*domain.TitleDetail]) {
	defer track(CollectionTitles, "get_by_id", time.Now(), &res.Err)

	if _, ok := parseObjectID(id); !ok {
		return domain.Fail[*domain.TitleDetail](domain.FailureInvalidID, "invalid title id %q", id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detail(ctx, id)
}

// detail must be called with the lock held.
func (m *MemoryTitleStore) detail(ctx context.Context, id string) domain.Result[*domain.TitleDetail] {
	rec, ok := m.titles[id]
	if !ok {
		m.logger.WarnContext(ctx, "Title not found", slog.String("titleID", id))
		return domain.Fail[*domain.TitleDetail](domain.FailureNotFound, "title %s not found", id)
	}
	return domain.OK(newTitleDetail(cloneTitle(rec.title), m.credits[id]))
}

func (m *MemoryTitleStore) List(ctx context.Context, query domain.TitleQuery) (res domain.Result[[]*domain.Title]) {
	defer track(CollectionTitles, "list", time.Now(), &res.Err)

	page, size := NormalizePage(query.Page, query.PageSize)

	m.mu.RLock()
	matched := m.sorted(func(t *domain.Title) bool { return matchesFilter(t, query.Filter) })
	m.mu.RUnlock()

	total := int64(len(matched))
	start := min(max((page-1)*size, 0), len(matched))
	end := min(start+size, len(matched))
	return domain.Paged(matched[start:end], NewPagination(page, size, total))
}

func (m *MemoryTitleStore) Update(ctx context.Context, id string, patch domain.TitlePatch) (res domain.Result[*domain.TitleDetail]) {
	defer track(CollectionTitles, "update", time.Now(), &res.Err)

	if _, ok := parseObjectID(id); !ok {
		return domain.Fail[*domain.TitleDetail](domain.FailureInvalidID, "invalid title id %q", id)
	}
	if msg := validate.Check(patch); msg != "" {
		m.logger.WarnContext(ctx, "Title patch validation failed", slog.String("titleID", id), slog.String("error", msg))
		return domain.Fail[*domain.TitleDetail](domain.FailureValidation, "%s", msg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.titles[id]
	if !ok {
		m.logger.WarnContext(ctx, "No title found to update", slog.String("titleID", id))
		return domain.Fail[*domain.TitleDetail](domain.FailureNotFound, "title %s not found", id)
	}
	if patch.ExternalRatingID != nil && m.externalIDTaken(*patch.ExternalRatingID, id) {
		m.logger.WarnContext(ctx, "Title update violates unique external rating id", slog.String("titleID", id))
		return domain.Fail[*domain.TitleDetail](domain.FailureDuplicate, "a title with this external rating id already exists")
	}
	applyTitlePatch(rec.title, patch, now())
	m.logger.InfoContext(ctx, "Title updated", slog.String("titleID", id))
	return m.detail(ctx, id)
}

func (m *MemoryTitleStore) Delete(ctx context.Context, id string) (res domain.Result[string]) {
	defer track(CollectionTitles, "delete", time.Now(), &res.Err)

	if _, ok := parseObjectID(id); !ok {
		return domain.Fail[string](domain.FailureInvalidID, "invalid title id %q", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.titles[id]; !ok {
		m.logger.WarnContext(ctx, "No title found to delete", slog.String("titleID", id))
		return domain.Fail[string](domain.FailureNotFound, "title %s not found", id)
	}
	delete(m.titles, id)
	m.logger.InfoContext(ctx, "Title deleted", slog.String("titleID", id))
	return domain.OK(id)
}

func (m *MemoryTitleStore) Statistics(ctx context.Context) (res domain.Result[*domain.TitleStatistics]) {
	defer track(CollectionTitles, "statistics", time.Now(), &res.Err)

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.TitleStatistics{TotalCount: int64(len(m.titles))}
	var ratingSum, runtimeSum float64
	var rated, timed int
	for _, rec := range m.titles {
		t := rec.title
		switch t.Kind {
		case domain.KindShow:
			stats.ShowCount++
		case domain.KindMovie:
			stats.MovieCount++
		}
		if t.ExternalRatingScore != nil {
			ratingSum += *t.ExternalRatingScore
			rated++
		}
		if t.RuntimeMinutes != nil {
			runtimeSum += float64(*t.RuntimeMinutes)
			timed++
		}
	}
	if rated > 0 {
		avg := ratingSum / float64(rated)
		stats.AverageRating = &avg
	}
	if timed > 0 {
		avg := runtimeSum / float64(timed)
		stats.AverageRuntime = &avg
	}
	return domain.OK(stats)
}

func (m *MemoryTitleStore) Search(ctx context.Context, text string) (res domain.Result[[]*domain.Title]) {
	defer track(CollectionTitles, "search", time.Now(), &res.Err)

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Fail[[]*domain.Title](domain.FailureValidation, "search query is required")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.OK(m.sorted(func(t *domain.Title) bool { return matchesSearch(t, text) }))
}

// sorted returns clones of the matching titles, newest first. Creation order
// breaks ties between equal timestamps. Must be called with the lock held.
func (m *MemoryTitleStore) sorted(keep func(*domain.Title) bool) []*domain.Title {
	recs := make([]*titleRecord, 0, len(m.titles))
	for _, rec := range m.titles {
		if keep(rec.title) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.title.CreatedAt.Equal(b.title.CreatedAt) {
			return a.title.CreatedAt.After(b.title.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*domain.Title, 0, len(recs))
	for _, rec := range recs {
		out = append(out, cloneTitle(rec.title))
	}
	return out
}

func (m *MemoryTitleStore) externalIDTaken(externalID, exceptID string) bool {
	for id, rec := range m.titles {
		if id != exceptID && rec.title.ExternalRatingID != nil && *rec.title.ExternalRatingID == externalID {
			return true
		}
	}
	return false
}

func cloneTitle(t *domain.Title) *domain.Title {
	c := *t
	c.Description = clonePtr(t.Description)
	c.ReleaseYear = clonePtr(t.ReleaseYear)
	c.AgeCertification = clonePtr(t.AgeCertification)
	c.RuntimeMinutes = clonePtr(t.RuntimeMinutes)
	c.Genres = append([]string{}, t.Genres...)
	c.ProductionCountries = append([]string{}, t.ProductionCountries...)
	c.SeasonCount = clonePtr(t.SeasonCount)
	c.ExternalRatingID = clonePtr(t.ExternalRatingID)
	c.ExternalRatingScore = clonePtr(t.ExternalRatingScore)
	c.ExternalRatingVotes = clonePtr(t.ExternalRatingVotes)
	c.PopularityScore = clonePtr(t.PopularityScore)
	c.SecondaryRatingScore = clonePtr(t.SecondaryRatingScore)
	c.CoverURL = clonePtr(t.CoverURL)
	return &c
}

var _ TitleStore = (*MemoryTitleStore)(nil)
