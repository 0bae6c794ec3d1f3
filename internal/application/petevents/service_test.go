package petevents

import (
	"context"
	"testing"

	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPet(t *testing.T) {
	db := testutil.NewDB(t)
	s := &Service{DB: db}
	ctx := context.Background()

	p := testutil.SeedListing(t, db, domain.Listing{Name: "Rex", Species: "dog"})
	actor := uuid.New()
	require.NoError(t, db.Create(domain.NewPetEvent(p.ID, domain.PetEventCreated, nil, map[string]interface{}{"name": "Rex"})).Error)
	require.NoError(t, db.Create(domain.NewPetEvent(p.ID, domain.PetEventFavorited, &actor, nil)).Error)

	events, err := s.ForPet(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.PetEventCreated, events[0].EventType)
	assert.Equal(t, domain.PetEventFavorited, events[1].EventType)
	assert.Equal(t, actor, *events[1].ActorID)

	_, err = s.ForPet(ctx, p.ID+100)
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestForPet_NoEvents(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.SeedListing(t, db, domain.Listing{Name: "Tom", Species: "cat"})
	events, err := (&Service{DB: db}).ForPet(context.Background(), p.ID)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
