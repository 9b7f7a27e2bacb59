package store

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"catalog-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageSize = 500
	MaxPageSize     = 1000

	// MaxPage keeps (page-1)*size within an int for every allowed size.
	MaxPage = math.MaxInt / MaxPageSize
)

// NormalizePage applies paging defaults and clamps without ever failing:
// page is clamped to [1, MaxPage], a zero size becomes DefaultPageSize and
// any other size is clamped to [1, MaxPageSize].
func NormalizePage(page, size int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 1:
		size = 1
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

// NewPagination builds the page descriptor; size must already be normalized.
func NewPagination(page, size int, total int64) domain.Pagination {
	pages := total / int64(size)
	if total%int64(size) != 0 {
		pages++
	}
	return domain.Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: pages}
}

// TitleFilterDocument translates list filters into a query predicate. All
// present filters must hold; an empty filter matches every title.
func TitleFilterDocument(f domain.TitleFilter) bson.D {
	filter := bson.D{}
	if f.Kind != "" {
		filter = append(filter, bson.E{Key: "kind", Value: string(f.Kind)})
	}
	if f.Genre != "" {
		// Equality against an array field matches any element.
		filter = append(filter, bson.E{Key: "genres", Value: f.Genre})
	}
	if f.ReleaseYear != nil {
		filter = append(filter, bson.E{Key: "release_year", Value: *f.ReleaseYear})
	}
	if f.MinScore != nil {
		filter = append(filter, bson.E{Key: "external_rating_score", Value: bson.D{{Key: "$gte", Value: *f.MinScore}}})
	}
	if text := strings.TrimSpace(f.Search); text != "" {
		filter = append(filter, bson.E{Key: "$or", Value: searchClauses(text)})
	}
	return filter
}

// searchClauses matches text as a literal, case-insensitive substring of the
// title or the description.
func searchClauses(text string) bson.A {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
	return bson.A{
		bson.D{{Key: "title", Value: pattern}},
		bson.D{{Key: "description", Value: pattern}},
	}
}

// matchesSearch is the in-memory counterpart of searchClauses.
func matchesSearch(t *domain.Title, text string) bool {
	needle := strings.ToLower(text)
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
}

// matchesFilter is the in-memory counterpart of TitleFilterDocument.
func matchesFilter(t *domain.Title, f domain.TitleFilter) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Genre != "" && !slices.Contains(t.Genres, f.Genre) {
		return false
	}
	if f.ReleaseYear != nil && (t.ReleaseYear == nil || *t.ReleaseYear != *f.ReleaseYear) {
		return false
	}
	if f.MinScore != nil && (t.ExternalRatingScore == nil || *t.ExternalRatingScore < *f.MinScore) {
		return false
	}
	if text := strings.TrimSpace(f.Search); text != "" && !matchesSearch(t, text) {
		return false
	}
	return true
}
