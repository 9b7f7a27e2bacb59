package store

import (
	"time"

	"catalog-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// titleDocument is the stored shape of a title. Optional fields are omitted
// when nil so the sparse unique index on external_rating_id ignores them.
type titleDocument struct {
	ID                   primitive.ObjectID `bson:"_id"`
	Title                string             `bson:"title"`
	Kind                 string             `bson:"kind"`
	Description          *string            `bson:"description,omitempty"`
	ReleaseYear          *int               `bson:"release_year,omitempty"`
	AgeCertification     *string            `bson:"age_certification,omitempty"`
	RuntimeMinutes       *int               `bson:"runtime_minutes,omitempty"`
	Genres               []string           `bson:"genres"`
	ProductionCountries  []string           `bson:"production_countries"`
	SeasonCount          *int               `bson:"season_count,omitempty"`
	ExternalRatingID     *string            `bson:"external_rating_id,omitempty"`
	ExternalRatingScore  *float64           `bson:"external_rating_score,omitempty"`
	ExternalRatingVotes  *int               `bson:"external_rating_votes,omitempty"`
	PopularityScore      *float64           `bson:"popularity_score,omitempty"`
	SecondaryRatingScore *float64           `bson:"secondary_rating_score,omitempty"`
	CoverURL             *string            `bson:"cover_url,omitempty"`
	CreatedAt            time.Time          `bson:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at"`
}

// titleWithCredits is one row of the title/credits $lookup.
type titleWithCredits struct {
	titleDocument `bson:",inline"`
	Credits       []creditDocument `bson:"credits"`
}

type creditDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	TitleID   primitive.ObjectID `bson:"title_id"`
	Name      string             `bson:"name"`
	Role      string             `bson:"role"`
	Character string             `bson:"character,omitempty"`
}

type accountDocument struct {
	ID               primitive.ObjectID `bson:"_id"`
	Username         string             `bson:"username"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password_hash"`
	FavoriteTitleIDs []string           `bson:"favorite_title_ids"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

type statisticsDocument struct {
	TotalCount     int64    `bson:"total_count"`
	AverageRating  *float64 `bson:"average_rating"`
	AverageRuntime *float64 `bson:"average_runtime"`
	ShowCount      int64    `bson:"show_count"`
	MovieCount     int64    `bson:"movie_count"`
}

func newTitleDocument(in domain.TitleInput, at time.Time) titleDocument {
	return titleDocument{
		ID:                   primitive.NewObjectID(),
		Title:                in.Title,
		Kind:                 string(in.Kind),
		Description:          in.Description,
		ReleaseYear:          in.ReleaseYear,
		AgeCertification:     in.AgeCertification,
		RuntimeMinutes:       in.RuntimeMinutes,
		Genres:               nonNil(in.Genres),
		ProductionCountries:  nonNil(in.ProductionCountries),
		SeasonCount:          in.SeasonCount,
		ExternalRatingID:     in.ExternalRatingID,
		ExternalRatingScore:  in.ExternalRatingScore,
		ExternalRatingVotes:  in.ExternalRatingVotes,
		PopularityScore:      in.PopularityScore,
		SecondaryRatingScore: in.SecondaryRatingScore,
		CoverURL:             in.CoverURL,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
}

func (d titleDocument) toDomain() *domain.Title {
	return &domain.Title{
		ID:                   d.ID.Hex(),
		Title:                d.Title,
		Kind:                 domain.TitleKind(d.Kind),
		Description:          d.Description,
		ReleaseYear:          d.ReleaseYear,
		AgeCertification:     d.AgeCertification,
		RuntimeMinutes:       d.RuntimeMinutes,
		Genres:               nonNil(d.Genres),
		ProductionCountries:  nonNil(d.ProductionCountries),
		SeasonCount:          d.SeasonCount,
		ExternalRatingID:     d.ExternalRatingID,
		ExternalRatingScore:  d.ExternalRatingScore,
		ExternalRatingVotes:  d.ExternalRatingVotes,
		PopularityScore:      d.PopularityScore,
		SecondaryRatingScore: d.SecondaryRatingScore,
		CoverURL:             d.CoverURL,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

func (d creditDocument) toDomain() domain.Credit {
	return domain.Credit{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Role:      domain.CreditRole(d.Role),
		Character: d.Character,
	}
}

// toDetail splits the joined credits into actors and directors; credits
// with any other role are dropped.
func (row titleWithCredits) toDetail() *domain.TitleDetail {
	credits := make([]domain.Credit, 0, len(row.Credits))
	for _, c := range row.Credits {
		credits = append(credits, c.toDomain())
	}
	return newTitleDetail(row.titleDocument.toDomain(), credits)
}

func newTitleDetail(t *domain.Title, credits []domain.Credit) *domain.TitleDetail {
	detail := &domain.TitleDetail{Title: *t, Actors: []domain.Credit{}, Directors: []domain.Credit{}}
	for _, c := range credits {
		switch c.Role {
		case domain.RoleActor:
			detail.Actors = append(detail.Actors, c)
		case domain.RoleDirector:
			detail.Directors = append(detail.Directors, c)
		}
	}
	return detail
}

// titlePatchSet builds the $set document for a partial update. Only fields
// present in the patch are written; updated_at is always refreshed.
func titlePatchSet(p domain.TitlePatch, at time.Time) bson.D {
	set := bson.D{}
	add := func(key string, value any) { set = append(set, bson.E{Key: key, Value: value}) }
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Kind != nil {
		add("kind", string(*p.Kind))
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.ReleaseYear != nil {
		add("release_year", *p.ReleaseYear)
	}
	if p.AgeCertification != nil {
		add("age_certification", *p.AgeCertification)
	}
	if p.RuntimeMinutes != nil {
		add("runtime_minutes", *p.RuntimeMinutes)
	}
	if p.Genres != nil {
		add("genres", p.Genres)
	}
	if p.ProductionCountries != nil {
		add("production_countries", p.ProductionCountries)
	}
	if p.SeasonCount != nil {
		add("season_count", *p.SeasonCount)
	}
	if p.ExternalRatingID != nil {
		add("external_rating_id", *p.ExternalRatingID)
	}
	if p.ExternalRatingScore != nil {
		add("external_rating_score", *p.ExternalRatingScore)
	}
	if p.ExternalRatingVotes != nil {
		add("external_rating_votes", *p.ExternalRatingVotes)
	}
	if p.PopularityScore != nil {
		add("popularity_score", *p.PopularityScore)
	}
	if p.SecondaryRatingScore != nil {
		add("secondary_rating_score", *p.SecondaryRatingScore)
	}
	if p.CoverURL != nil {
		add("cover_url", *p.CoverURL)
	}
	add("updated_at", at)
	return set
}

// applyTitlePatch is the in-memory counterpart of titlePatchSet.
func applyTitlePatch(t *domain.Title, p domain.TitlePatch, at time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Description != nil {
		t.Description = clonePtr(p.Description)
	}
	if p.ReleaseYear != nil {
		t.ReleaseYear = clonePtr(p.ReleaseYear)
	}
	if p.AgeCertification != nil {
		t.AgeCertification = clonePtr(p.AgeCertification)
	}
	if p.RuntimeMinutes != nil {
		t.RuntimeMinutes = clonePtr(p.RuntimeMinutes)
	}
	if p.Genres != nil {
		t.Genres = append([]string{}, p.Genres...)
	}
	if p.ProductionCountries != nil {
		t.ProductionCountries = append([]string{}, p.ProductionCountries...)
	}
	if p.SeasonCount != nil {
		t.SeasonCount = clonePtr(p.SeasonCount)
	}
	if p.ExternalRatingID != nil {
		t.ExternalRatingID = clonePtr(p.ExternalRatingID)
	}
	if p.ExternalRatingScore != nil {
		t.ExternalRatingScore = clonePtr(p.ExternalRatingScore)
	}
	if p.ExternalRatingVotes != nil {
		t.ExternalRatingVotes = clonePtr(p.ExternalRatingVotes)
	}
	if p.PopularityScore != nil {
		t.PopularityScore = clonePtr(p.PopularityScore)
	}
	if p.SecondaryRatingScore != nil {
		t.SecondaryRatingScore = clonePtr(p.SecondaryRatingScore)
	}
	if p.CoverURL != nil {
		t.CoverURL = clonePtr(p.CoverURL)
	}
	t.UpdatedAt = at
}

// toDomain drops the password hash.
func (d accountDocument) toDomain() *domain.Account {
	return &domain.Account{
		ID:               d.ID.Hex(),
		Username:         d.Username,
		Email:            d.Email,
		FavoriteTitleIDs: nonNil(d.FavoriteTitleIDs),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// accountPatchSet builds the $set document for an account update.
// passwordHash is the already hashed replacement, or "" to keep the current one.
func accountPatchSet(p domain.AccountPatch, passwordHash string, at time.Time) bson.D {
	set := bson.D{}
	if p.Username != nil {
		set = append(set, bson.E{Key: "username", Value: *p.Username})
	}
	if p.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *p.Email})
	}
	if passwordHash != "" {
		set = append(set, bson.E{Key: "password_hash", Value: passwordHash})
	}
	return append(set, bson.E{Key: "updated_at", Value: at})
}

func (s statisticsDocument) toDomain() *domain.TitleStatistics {
	return &domain.TitleStatistics{
		TotalCount:     s.TotalCount,
		AverageRating:  s.AverageRating,
		AverageRuntime: s.AverageRuntime,
		ShowCount:      s.ShowCount,
		MovieCount:     s.MovieCount,
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
