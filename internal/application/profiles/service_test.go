package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"petadopt-backend/internal/application/uploads"
	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingRowUsesDefaults(t *testing.T) {
	svc := &Service{DB: testutil.NewDB(t)}
	id := uuid.New()

	v, err := svc.Load(context.Background(), id, "sam@example.com")
	require.NoError(t, err)
	assert.False(t, v.Exists)
	assert.Equal(t, "sam", v.Name)
	assert.Equal(t, DefaultBio, v.Bio)
	assert.Equal(t, DefaultAvatar, v.AvatarURL)
	assert.Nil(t, v.UpdatedAt)
}

func TestLoad_PhoneIdentity(t *testing.T) {
	svc := &Service{DB: testutil.NewDB(t)}
	v, err := svc.Load(context.Background(), uuid.New(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", v.Name)
}

func TestCreateDefault_ThenLoadFallsBackPerField(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{DB: db}
	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.CreateDefault(ctx, nil, id))
	require.NoError(t, svc.CreateDefault(ctx, nil, id))

	var count int64
	db.Model(&domain.Profile{}).Where("id = ?", id).Count(&count)
	assert.Equal(t, int64(1), count)

	v, err := svc.Load(ctx, id, "kim@example.com")
	require.NoError(t, err)
	assert.True(t, v.Exists)
	assert.Equal(t, "kim", v.Name)
	assert.Equal(t, DefaultBio, v.Bio)
}

func TestSave_RequiresName(t *testing.T) {
	svc := &Service{DB: testutil.NewDB(t)}
	_, err := svc.Save(context.Background(), uuid.New(), SaveInput{Name: "   ", Bio: "hi"})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestSave_UpsertsAndStampsUpdatedAt(t *testing.T) {
	db := testutil.NewDB(t)
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	svc := &Service{DB: db, Now: func() time.Time { return clock }}
	id := uuid.New()
	ctx := context.Background()

	_, err := svc.Save(ctx, id, SaveInput{Name: " Sam ", Bio: " Dog person ", AvatarURL: "https://a/1.png"})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	_, err = svc.Save(ctx, id, SaveInput{Name: "Samantha", Bio: ""})
	require.NoError(t, err)

	var p domain.Profile
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	assert.Equal(t, "Samantha", p.Name)
	assert.Equal(t, "", p.Bio)
	assert.Equal(t, "", p.AvatarURL)
	assert.True(t, p.UpdatedAt.Equal(clock), "updated_at %v", p.UpdatedAt)

	v, err := svc.Load(ctx, id, "sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Samantha", v.Name)
	assert.Equal(t, DefaultBio, v.Bio)
}

func TestUploadAvatar(t *testing.T) {
	up := &testutil.FakeUploader{}
	svc := &Service{Uploader: up}
	url, err := svc.UploadAvatar(context.Background(), uploads.Image{Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "https://res.example.com/pets/1.jpg", url)

	up.UploadErr = errors.New("boom")
	_, err = svc.UploadAvatar(context.Background(), uploads.Image{Data: []byte("x")})
	assert.Error(t, err)

	_, err = (&Service{}).UploadAvatar(context.Background(), uploads.Image{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrNoUploader)
}
