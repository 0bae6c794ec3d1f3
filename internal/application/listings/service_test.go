package listings

import (
	"context"
	"testing"
	"time"

	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedPets(t *testing.T, db *gorm.DB) {
	t.Helper()
	pets := []domain.Listing{
		{Name: "Rex", Species: "Dog", Breed: testutil.Ptr("Labrador Retriever"), FavoritesCount: 5, CreatedAt: base},
		{Name: "Bella", Species: "dog", Breed: testutil.Ptr("Beagle"), FavoritesCount: 9, CreatedAt: base.Add(time.Hour)},
		{Name: "Milo", Species: "cat", Breed: testutil.Ptr("Siamese"), SpecialNeeds: true, FavoritesCount: 9, CreatedAt: base.Add(2 * time.Hour)},
		{Name: "Thumper", Species: "rabbit", FavoritesCount: 1, CreatedAt: base.Add(3 * time.Hour)},
		{Name: "Rexy_50%", Species: "bird", Breed: testutil.Ptr("100% parrot"), CreatedAt: base.Add(4 * time.Hour)},
	}
	for _, p := range pets {
		testutil.SeedListing(t, db, p)
	}
}

func names(ls []domain.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Name
	}
	return out
}

func TestBrowse(t *testing.T) {
	db := testutil.NewDB(t)
	seedPets(t, db)
	svc := &Service{DB: db}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all newest", Query{}, []string{"Rexy_50%", "Thumper", "Milo", "Bella", "Rex"}},
		{"All chip", Query{Species: "all"}, []string{"Rexy_50%", "Thumper", "Milo", "Bella", "Rex"}},
		{"species case-insensitive", Query{Species: " DOG "}, []string{"Bella", "Rex"}},
		{"breed substring", Query{Breed: "  retriever "}, []string{"Rex"}},
		{"breed no match", Query{Species: "Cat", Breed: "beagle"}, []string{}},
		{"popular ties by newest", Query{Sort: SortPopular}, []string{"Milo", "Bella", "Rex", "Thumper", "Rexy_50%"}},
		{"limit", Query{Limit: 2}, []string{"Rexy_50%", "Thumper"}},
		{"name substring", Query{Name: "rex"}, []string{"Rexy_50%", "Rex"}},
		{"percent is literal", Query{Breed: "100%"}, []string{"Rexy_50%"}},
		{"underscore is literal", Query{Name: "y_5"}, []string{"Rexy_50%"}},
		{"percent alone does not match everything", Query{Name: "%"}, []string{"Rexy_50%"}},
		{"special needs", Query{SpecialNeedsOnly: true}, []string{"Milo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Browse(context.Background(), tt.q)
			require.NoError(t, err)
			require.NotNil(t, got)
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Browse(%+v) mismatch (-want +got):\n%s", tt.q, diff)
			}
		})
	}
}

func TestBrowse_InvalidSort(t *testing.T) {
	svc := &Service{DB: testutil.NewDB(t)}
	got, err := svc.Browse(context.Background(), Query{Sort: "oldest"})
	assert.ErrorIs(t, err, ErrInvalidSort)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBrowse_BackendErrorYieldsEmptySlice(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Migrator().DropTable(&domain.Listing{}))
	svc := &Service{DB: db}
	got, err := svc.Browse(context.Background(), Query{})
	assert.Error(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBrowse_SpeciesStoredLowercase(t *testing.T) {
	db := testutil.NewDB(t)
	l := testutil.SeedListing(t, db, domain.Listing{Name: "Kiwi", Species: "Bird"})
	assert.Equal(t, "bird", l.Species)
}

func TestBrowse_NonASCIICaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	testutil.SeedListing(t, db, domain.Listing{Name: "Élodie", Species: "dog", Breed: testutil.Ptr("Épagneul Breton")})
	testutil.SeedListing(t, db, domain.Listing{Name: "Zoë", Species: "cat"})

	got, err := svc.Browse(ctx, Query{Breed: "épagneul"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Élodie"}, names(got))

	got, err = svc.Browse(ctx, Query{Breed: "ÉPAGNEUL BRETON"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Élodie"}, names(got))

	got, err = svc.Browse(ctx, Query{Name: "ZOË"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zoë"}, names(got))
}

func TestGet(t *testing.T) {
	db := testutil.NewDB(t)
	l := testutil.SeedListing(t, db, domain.Listing{Name: "Rex", Species: "dog"})
	svc := &Service{DB: db}

	got, err := svc.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rex", got.Name)

	_, err = svc.Get(context.Background(), l.ID+100)
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestFeed(t *testing.T) {
	db := testutil.NewDB(t)
	seedPets(t, db)
	svc := &Service{DB: db}

	feed, err := svc.Feed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Milo"}, names(feed.Urgent))
	assert.Equal(t, []string{"Milo", "Bella", "Rex", "Thumper", "Rexy_50%"}, names(feed.Trending))
	assert.Equal(t, []string{"Rexy_50%", "Thumper", "Milo", "Bella", "Rex"}, names(feed.NewArrivals))
}

func TestFeed_SectionLimit(t *testing.T) {
	db := testutil.NewDB(t)
	for i := 0; i < SectionLimit+3; i++ {
		testutil.SeedListing(t, db, domain.Listing{Name: "p", Species: "dog", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	feed, err := (&Service{DB: db}).Feed(context.Background())
	require.NoError(t, err)
	assert.Len(t, feed.NewArrivals, SectionLimit)
	assert.Len(t, feed.Trending, SectionLimit)
	assert.Empty(t, feed.Urgent)
	assert.NotNil(t, feed.Urgent)
}

func TestFeed_FailureDegradesEverySection(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Migrator().DropTable(&domain.Listing{}))
	feed, err := (&Service{DB: db}).Feed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "urgent")
	assert.Contains(t, err.Error(), "trending")
	assert.NotNil(t, feed.Urgent)
	assert.NotNil(t, feed.Trending)
	assert.NotNil(t, feed.NewArrivals)
}
