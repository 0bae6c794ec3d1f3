// Package testutil wires in-memory SQLite and miniredis for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"petadopt-backend/internal/application/uploads"
	"petadopt-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory database. The pool is pinned to one
// connection because every new SQLite memory connection is a fresh database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return db
}

// NewRedis returns a client backed by miniredis plus the server for inspection.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// SeedListing inserts a listing with the required fields filled in.
func SeedListing(t *testing.T, db *gorm.DB, l domain.Listing) domain.Listing {
	t.Helper()
	if l.Location == "" {
		l.Location = "Springfield"
	}
	if l.ImageURL == "" {
		l.ImageURL = "https://res.example.com/pet.jpg"
	}
	require.NoError(t, db.Create(&l).Error)
	return l
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// FakeUploader records calls and answers from its fields.
type FakeUploader struct {
	mu         sync.Mutex
	UploadErr  error
	DestroyErr error
	Uploads    []uploads.Image
	Destroyed  []string
}

func (f *FakeUploader) Upload(ctx context.Context, img uploads.Image) (*uploads.Uploaded, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads = append(f.Uploads, img)
	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	n := len(f.Uploads)
	return &uploads.Uploaded{
		SecureURL: fmt.Sprintf("https://res.example.com/pets/%d.jpg", n),
		PublicID:  fmt.Sprintf("pets/%d", n),
	}, nil
}

func (f *FakeUploader) Destroy(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Destroyed = append(f.Destroyed, publicID)
	return f.DestroyErr
}

// UploadCount is safe to call while uploads are in flight.
func (f *FakeUploader) UploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Uploads)
}
