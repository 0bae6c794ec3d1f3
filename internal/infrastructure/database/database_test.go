package database

import (
	"testing"

	"petadopt-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMemoryAndMigrate(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, m := range domain.Models() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.NoError(t, (&Pinger{DB: db}).Ping())
}

func TestListing_SpeciesStoredLowercase(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	l := &domain.Listing{Name: "Rex", Species: "  Dog ", Location: "Austin", ImageURL: "https://img/x.jpg"}
	require.NoError(t, db.Create(l).Error)

	var got domain.Listing
	require.NoError(t, db.First(&got, l.ID).Error)
	assert.Equal(t, "dog", got.Species)
	assert.False(t, got.Vaccinated)
	assert.Equal(t, int64(0), got.FavoritesCount)
}

func TestPinger_Nil(t *testing.T) {
	var p *Pinger
	assert.NoError(t, p.Ping())
}
