package listings

import (
	"context"
	"errors"
	"fmt"

	"petadopt-backend/internal/domain"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var ErrPetNotFound = errors.New("Pet not found")

type Service struct {
	DB *gorm.DB
}

// Browse runs q against the pets table. The result is never nil.
func (s *Service) Browse(ctx context.Context, q Query) ([]domain.Listing, error) {
	q, err := q.normalize()
	if err != nil {
		return []domain.Listing{}, err
	}
	listings := []domain.Listing{}
	if err := q.scope(s.DB.WithContext(ctx).Model(&domain.Listing{})).Find(&listings).Error; err != nil {
		return []domain.Listing{}, fmt.Errorf("Failed to fetch pets: %w", err)
	}
	return listings, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Feed is the home tab: three independent sections.
type Feed struct {
	Urgent      []domain.Listing `json:"urgent"`
	Trending    []domain.Listing `json:"trending"`
	NewArrivals []domain.Listing `json:"new_arrivals"`
}

// Feed loads the sections concurrently. A failing section is left empty and its
// error is joined into the returned error; the other sections are still filled.
func (s *Service) Feed(ctx context.Context) (*Feed, error) {
	feed := &Feed{}
	sections := []struct {
		name string
		q    Query
		dst  *[]domain.Listing
	}{
		{"urgent", Query{SpecialNeedsOnly: true, Sort: SortNewest, Limit: SectionLimit}, &feed.Urgent},
		{"trending", Query{Sort: SortPopular, Limit: SectionLimit}, &feed.Trending},
		{"new_arrivals", Query{Sort: SortNewest, Limit: SectionLimit}, &feed.NewArrivals},
	}

	errs := make([]error, len(sections))
	var g errgroup.Group
	for i, sec := range sections {
		g.Go(func() error {
			res, err := s.Browse(ctx, sec.q)
			*sec.dst = res
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", sec.name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return feed, errors.Join(errs...)
}
