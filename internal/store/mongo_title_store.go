package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/validate"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTitleStore implements TitleStore on the titles collection, joining
// credits for detail views.
type MongoTitleStore struct {
	titles      *mongo.Collection
	creditsName string
	logger      *slog.Logger
}

func NewMongoTitleStore(titles, credits *mongo.Collection, logger *slog.Logger) *MongoTitleStore {
	return &MongoTitleStore{titles: titles, creditsName: credits.Name(), logger: logger}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// Create inserts a validated title with a server-assigned id and timestamps.
func (s *MongoTitleStore) Create(ctx context.Context, input domain.TitleInput) (res domain.Result[*domain.Title]) {
	defer track(CollectionTitles, "create", time.Now(), &res.Err)

	if msg := validate.Check(input); msg != "" {
		s.logger.WarnContext(ctx, "Title validation failed", slog.String("error", msg))
		return domain.Fail[*domain.Title](domain.FailureValidation, "%s", msg)
	}

	doc := newTitleDocument(input, now())
	s.logger.DebugContext(ctx, "Inserting title", slog.String("titleID", doc.ID.Hex()), slog.String("title", doc.Title))
	if _, err := s.titles.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.WarnContext(ctx, "Title already exists (unique index violation)", slog.String("error", err.Error()))
			return domain.Fail[*domain.Title](domain.FailureDuplicate, "a title with this external rating id already exists")
		}
		return persistenceFailure[*domain.Title](ctx, s.logger, "create title", err)
	}
	s.logger.InfoContext(ctx, "Title created", slog.String("titleID", doc.ID.Hex()))
	return domain.OK(doc.toDomain())
}

// titleDetailPipeline matches one title and left-joins its credits.
func titleDetailPipeline(id primitive.ObjectID, creditsCollection string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: creditsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "title_id"},
			{Key: "as", Value: "credits"},
		}}},
	}
}

// GetByID returns the title with its actors and directors.
func (s *MongoTitleStore) GetByID(ctx context.Context, id string) (res domain.Result[*domain.TitleDetail]) {
	defer track(CollectionTitles, "get_by_id", time.Now(), &res.Err)

	oid, ok := parseObjectID(id)
	if !ok {
		return domain.Fail[*domain.TitleDetail](domain.FailureInvalidID, "invalid title id %q", id)
	}

	cur, err := s.titles.Aggregate(ctx, titleDetailPipeline(oid, s.creditsName))
	if err != nil {
		return persistenceFailure[*domain.TitleDetail](ctx, s.logger, "get title", err, slog.String("titleID", id))
	}
	var rows []titleWithCredits
	if err := cur.All(ctx, &rows); err != nil {
		return persistenceFailure[*domain.TitleDetail](ctx, s.logger, "get title", err, slog.String("titleID", id))
	}
	if len(rows) == 0 {
		s.logger.WarnContext(ctx, "Title not found", slog.String("titleID", id))
		return domain.Fail[*domain.TitleDetail](domain.FailureNotFound, "title %s not found", id)
	}
	return domain.OK(rows[0].toDetail())
}

// List counts the matching titles, then fetches one page newest first.
// The two reads are not isolated; concurrent writes may skew the count.
func (s *MongoTitleStore) List(ctx context.Context, query domain.TitleQuery) (res domain.Result[[]*domain.Title]) {
	defer track(CollectionTitles, "list", time.Now(), &res.Err)

	page, size := NormalizePage(query.Page, query.PageSize)
	filter := TitleFilterDocument(query.Filter)
	s.logger.DebugContext(ctx, "Listing titles", slog.Any("filter", filter), slog.Int("page", page), slog.Int("pageSize", size))

	total, err := s.titles.CountDocuments(ctx, filter)
	if err != nil {
		return persistenceFailure[[]*domain.Title](ctx, s.logger, "count titles", err)
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(page-1) * int64(size)).
		SetLimit(int64(size))
	titles, err := s.find(ctx, filter, opts)
	if err != nil {
		return persistenceFailure[[]*domain.Title](ctx, s.logger, "list titles", err)
	}
	return domain.Paged(titles, NewPagination(page, size, total))
}

// Update applies only the fields present in patch and returns the joined view.
func (s *MongoTitleStore) Update(ctx context.Context, id string, patch domain.TitlePatch) (res domain.Result[*domain.TitleDetail]) {
	defer track(CollectionTitles, "update", time.Now(), &res.Err)

	oid, ok := parseObjectID(id)
	if !ok {
		return domain.Fail[*domain.TitleDetail](domain.FailureInvalidID, "invalid title id %q", id)
	}
	if msg := validate.Check(patch); msg != "" {
		s.logger.WarnContext(ctx, "Title patch validation failed", slog.String("titleID", id), slog.String("error", msg))
		return domain.Fail[*domain.TitleDetail](domain.FailureValidation, "%s", msg)
	}

	update := bson.D{{Key: "$set", Value: titlePatchSet(patch, now())}}
	result, err := s.titles.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.WarnContext(ctx, "Title update violates unique index", slog.String("titleID", id))
			return domain.Fail[*domain.TitleDetail](domain.FailureDuplicate, "a title with this external rating id already exists")
		}
		return persistenceFailure[*domain.TitleDetail](ctx, s.logger, "update title", err, slog.String("titleID", id))
	}
	if result.MatchedCount == 0 {
		s.logger.WarnContext(ctx, "No title found to update", slog.String("titleID", id))
		return domain.Fail[*domain.TitleDetail](domain.FailureNotFound, "title %s not found", id)
	}
	s.logger.InfoContext(ctx, "Title updated", slog.String("titleID", id))
	return s.GetByID(ctx, id)
}

// Delete removes a title. Favorites pointing at it are left in place.
func (s *MongoTitleStore) Delete(ctx context.Context, id string) (res domain.Result[string]) {
	defer track(CollectionTitles, "delete", time.Now(), &res.Err)

	oid, ok := parseObjectID(id)
	if !ok {
		return domain.Fail[string](domain.FailureInvalidID, "invalid title id %q", id)
	}
	result, err := s.titles.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return persistenceFailure[string](ctx, s.logger, "delete title", err, slog.String("titleID", id))
	}
	if result.DeletedCount == 0 {
		s.logger.WarnContext(ctx, "No title found to delete", slog.String("titleID", id))
		return domain.Fail[string](domain.FailureNotFound, "title %s not found", id)
	}
	s.logger.InfoContext(ctx, "Title deleted", slog.String("titleID", id))
	return domain.OK(id)
}

// statisticsPipeline computes every figure in a single $group stage.
func statisticsPipeline() mongo.Pipeline {
	countKind := func(kind domain.TitleKind) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$kind", string(kind)}}}, 1, 0,
		}}}}}
	}
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "average_rating", Value: bson.D{{Key: "$avg", Value: "$external_rating_score"}}},
			{Key: "average_runtime", Value: bson.D{{Key: "$avg", Value: "$runtime_minutes"}}},
			{Key: "show_count", Value: countKind(domain.KindShow)},
			{Key: "movie_count", Value: countKind(domain.KindMovie)},
		}}},
	}
}

// Statistics summarizes the catalog. An empty catalog yields zero counts.
func (s *MongoTitleStore) Statistics(ctx context.Context) (res domain.Result[*domain.TitleStatistics]) {
	defer track(CollectionTitles, "statistics", time.Now(), &res.Err)

	cur, err := s.titles.Aggregate(ctx, statisticsPipeline())
	if err != nil {
		return persistenceFailure[*domain.TitleStatistics](ctx, s.logger, "compute statistics", err)
	}
	var rows []statisticsDocument
	if err := cur.All(ctx, &rows); err != nil {
		return persistenceFailure[*domain.TitleStatistics](ctx, s.logger, "compute statistics", err)
	}
	if len(rows) == 0 {
		return domain.OK(&domain.TitleStatistics{})
	}
	return domain.OK(rows[0].toDomain())
}

// Search matches text against title or description, newest first.
func (s *MongoTitleStore) Search(ctx context.Context, text string) (res domain.Result[[]*domain.Title]) {
	defer track(CollectionTitles, "search", time.Now(), &res.Err)

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Fail[[]*domain.Title](domain.FailureValidation, "search query is required")
	}
	filter := bson.D{{Key: "$or", Value: searchClauses(text)}}
	titles, err := s.find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return persistenceFailure[[]*domain.Title](ctx, s.logger, "search titles", err, slog.String("query", text))
	}
	return domain.OK(titles)
}

func (s *MongoTitleStore) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*domain.Title, error) {
	cur, err := s.titles.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []titleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	titles := make([]*domain.Title, 0, len(docs))
	for _, d := range docs {
		titles = append(titles, d.toDomain())
	}
	return titles, nil
}

var _ TitleStore = (*MongoTitleStore)(nil)
