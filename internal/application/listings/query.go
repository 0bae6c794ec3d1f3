package listings

import (
	"errors"
	"strings"

	"petadopt-backend/internal/domain"

	"gorm.io/gorm"
)

// Sort is the listing order.
type Sort string

const (
	SortNewest  Sort = "newest"
	SortPopular Sort = "popular"

	// AllSpecies is the species chip that disables the species filter.
	AllSpecies = "All"

	HomeLimit    = 20
	SearchLimit  = 20
	SectionLimit = 10
	MaxLimit     = 100
)

var ErrInvalidSort = errors.New("sort must be 'newest' or 'popular'")

// Query describes one listing fetch. Zero values mean "no filter", newest first, no limit.
type Query struct {
	Species          string
	Breed            string
	Name             string
	Sort             Sort
	Limit            int
	SpecialNeedsOnly bool
}

// normalize trims the text filters and resolves defaults.
func (q Query) normalize() (Query, error) {
	q.Species = strings.TrimSpace(q.Species)
	if strings.EqualFold(q.Species, AllSpecies) {
		q.Species = ""
	}
	q.Species = strings.ToLower(q.Species)
	q.Breed = strings.TrimSpace(q.Breed)
	q.Name = strings.TrimSpace(q.Name)

	switch Sort(strings.ToLower(string(q.Sort))) {
	case "", SortNewest:
		q.Sort = SortNewest
	case SortPopular:
		q.Sort = SortPopular
	default:
		return q, ErrInvalidSort
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	return q, nil
}

// scope applies filters, order and limit to a pets query.
func (q Query) scope(db *gorm.DB) *gorm.DB {
	if q.Species != "" {
		db = db.Where("species = ?", q.Species)
	}
	if q.Breed != "" {
		db = db.Where(`breed_key LIKE ? ESCAPE '\'`, containsPattern(q.Breed))
	}
	if q.Name != "" {
		db = db.Where(`name_key LIKE ? ESCAPE '\'`, containsPattern(q.Name))
	}
	if q.SpecialNeedsOnly {
		db = db.Where("special_needs = ?", true)
	}
	if q.Sort == SortPopular {
		db = db.Order("favorites_count DESC")
	}
	db = db.Order("created_at DESC").Order("id DESC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive substring pattern with LIKE wildcards escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(domain.SearchKey(s)) + "%"
}
