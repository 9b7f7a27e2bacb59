package domain

import "time"

// TitleKind distinguishes movies from shows.
type TitleKind string

const (
	KindMovie TitleKind = "movie"
	KindShow  TitleKind = "show"
)

// Title is a catalog entry as exposed to callers.
// Optional attributes are nil when the title does not carry them.
type Title struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Kind                 TitleKind `json:"kind"`
	Description          *string   `json:"description,omitempty"`
	ReleaseYear          *int      `json:"release_year,omitempty"`
	AgeCertification     *string   `json:"age_certification,omitempty"`
	RuntimeMinutes       *int      `json:"runtime_minutes,omitempty"`
	Genres               []string  `json:"genres"`
	ProductionCountries  []string  `json:"production_countries"`
	SeasonCount          *int      `json:"season_count,omitempty"`
	ExternalRatingID     *string   `json:"external_rating_id,omitempty"`
	ExternalRatingScore  *float64  `json:"external_rating_score,omitempty"`
	ExternalRatingVotes  *int      `json:"external_rating_votes,omitempty"`
	PopularityScore      *float64  `json:"popularity_score,omitempty"`
	SecondaryRatingScore *float64  `json:"secondary_rating_score,omitempty"`
	CoverURL             *string   `json:"cover_url,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TitleDetail is a title joined with its cast and crew.
type TitleDetail struct {
	Title
	Actors    []Credit `json:"actors"`
	Directors []Credit `json:"directors"`
}

// TitleInput is the body of a create request.
type TitleInput struct {
	Title                string    `json:"title" validate:"required,min=1,max=200"`
	Kind                 TitleKind `json:"kind" validate:"required,oneof=movie show"`
	Description          *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	ReleaseYear          *int      `json:"release_year,omitempty" validate:"omitempty,gte=1800,lte=2030"`
	AgeCertification     *string   `json:"age_certification,omitempty" validate:"omitempty,max=10"`
	RuntimeMinutes       *int      `json:"runtime_minutes,omitempty" validate:"omitempty,gte=1"`
	Genres               []string  `json:"genres,omitempty" validate:"omitempty,dive,min=1,max=100"`
	ProductionCountries  []string  `json:"production_countries,omitempty" validate:"omitempty,dive,min=1,max=100"`
	SeasonCount          *int      `json:"season_count,omitempty" validate:"omitempty,gte=1"`
	ExternalRatingID     *string   `json:"external_rating_id,omitempty" validate:"omitempty,min=1,max=20"`
	ExternalRatingScore  *float64  `json:"external_rating_score,omitempty" validate:"omitempty,gte=0,lte=10"`
	ExternalRatingVotes  *int      `json:"external_rating_votes,omitempty" validate:"omitempty,gte=0"`
	PopularityScore      *float64  `json:"popularity_score,omitempty" validate:"omitempty,gte=0"`
	SecondaryRatingScore *float64  `json:"secondary_rating_score,omitempty" validate:"omitempty,gte=0,lte=10"`
	CoverURL             *string   `json:"cover_url,omitempty" validate:"omitempty,url"`
}

// TitlePatch is a partial update: nil fields are left untouched.
// A non-nil empty slice clears the list.
type TitlePatch struct {
	Title                *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Kind                 *TitleKind `json:"kind,omitempty" validate:"omitempty,oneof=movie show"`
	Description          *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	ReleaseYear          *int       `json:"release_year,omitempty" validate:"omitempty,gte=1800,lte=2030"`
	AgeCertification     *string    `json:"age_certification,omitempty" validate:"omitempty,max=10"`
	RuntimeMinutes       *int       `json:"runtime_minutes,omitempty" validate:"omitempty,gte=1"`
	Genres               []string   `json:"genres,omitempty" validate:"omitempty,dive,min=1,max=100"`
	ProductionCountries  []string   `json:"production_countries,omitempty" validate:"omitempty,dive,min=1,max=100"`
	SeasonCount          *int       `json:"season_count,omitempty" validate:"omitempty,gte=1"`
	ExternalRatingID     *string    `json:"external_rating_id,omitempty" validate:"omitempty,min=1,max=20"`
	ExternalRatingScore  *float64   `json:"external_rating_score,omitempty" validate:"omitempty,gte=0,lte=10"`
	ExternalRatingVotes  *int       `json:"external_rating_votes,omitempty" validate:"omitempty,gte=0"`
	PopularityScore      *float64   `json:"popularity_score,omitempty" validate:"omitempty,gte=0"`
	SecondaryRatingScore *float64   `json:"secondary_rating_score,omitempty" validate:"omitempty,gte=0,lte=10"`
	CoverURL             *string    `json:"cover_url,omitempty" validate:"omitempty,url"`
}

// TitleFilter holds the optional list filters. Zero values impose no constraint.
type TitleFilter struct {
	Kind        TitleKind
	Genre       string
	ReleaseYear *int
	MinScore    *float64
	Search      string
}

// PageRequest is the raw paging input; see store.NormalizePage for defaults.
type PageRequest struct {
	Page     int
	PageSize int
}

type TitleQuery struct {
	PageRequest
	Filter TitleFilter
}

// TitleStatistics summarizes the whole catalog.
// Averages are nil when no title carries the averaged attribute.
type TitleStatistics struct {
	TotalCount     int64    `json:"total_count"`
	AverageRating  *float64 `json:"average_rating"`
	AverageRuntime *float64 `json:"average_runtime"`
	ShowCount      int64    `json:"show_count"`
	MovieCount     int64    `json:"movie_count"`
}
