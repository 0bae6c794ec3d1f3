package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petadopt-backend/internal/application/uploads"
	"petadopt-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultBio    = "Your bio goes here. Edit your profile to add more details."
	DefaultAvatar = "https://via.placeholder.com/150"
)

var (
	ErrNameRequired = errors.New("Name cannot be empty.")
	ErrNoUploader   = errors.New("image uploads are not configured")
)

// Service reads and writes profiles.
type Service struct {
	DB       *gorm.DB
	Uploader uploads.Uploader
	Now      func() time.Time
}

// View is a profile as shown to its owner, with blank fields replaced by defaults.
type View struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Bio       string     `json:"bio"`
	AvatarURL string     `json:"avatar_url"`
	Exists    bool       `json:"exists"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SaveInput is the edit-profile form.
type SaveInput struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// DisplayNameFor derives a name from the identity: the email local part, or the phone as is.
func DisplayNameFor(identity string) string {
	identity = strings.TrimSpace(identity)
	if i := strings.Index(identity, "@"); i >= 0 {
		return identity[:i]
	}
	return identity
}

// Load fetches the profile. A missing row is not an error; the view is filled from defaults.
func (s *Service) Load(ctx context.Context, userID uuid.UUID, identity string) (*View, error) {
	view := &View{ID: userID}
	var p domain.Profile
	err := s.DB.WithContext(ctx).Where("id = ?", userID).Take(&p).Error
	switch {
	case err == nil:
		view.Exists = true
		view.Name, view.Bio, view.AvatarURL = p.Name, p.Bio, p.AvatarURL
		updated := p.UpdatedAt
		view.UpdatedAt = &updated
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if view.Name == "" {
		view.Name = DisplayNameFor(identity)
	}
	if view.Bio == "" {
		view.Bio = DefaultBio
	}
	if view.AvatarURL == "" {
		view.AvatarURL = DefaultAvatar
	}
	return view, nil
}

// CreateDefault inserts an empty profile for a new user; an existing row is left alone.
// Pass the transaction handle when called inside one.
func (s *Service) CreateDefault(ctx context.Context, db *gorm.DB, userID uuid.UUID) error {
	if db == nil {
		db = s.DB
	}
	now := s.now()
	p := domain.Profile{ID: userID, CreatedAt: now, UpdatedAt: now}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&p).Error
}

// Save upserts the profile keyed by user id. Last write wins.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, in SaveInput) (*domain.Profile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := s.now()
	p := domain.Profile{
		ID:        userID,
		Name:      name,
		Bio:       strings.TrimSpace(in.Bio),
		AvatarURL: strings.TrimSpace(in.AvatarURL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "bio", "avatar_url", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &p, nil
}

// UploadAvatar stores the picture on the image host and returns its URL.
// The caller persists it through Save.
func (s *Service) UploadAvatar(ctx context.Context, img uploads.Image) (string, error) {
	if s.Uploader == nil {
		return "", ErrNoUploader
	}
	up, err := s.Uploader.Upload(ctx, img)
	if err != nil {
		return "", err
	}
	return up.SecureURL, nil
}
