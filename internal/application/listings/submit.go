package listings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"petadopt-backend/internal/application/uploads"
	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrImageUpload = errors.New("Failed to upload image.")
	ErrSaveFailed  = errors.New("Failed to save pet listing.")
)

// ValidationError lists the required fields that were blank.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Please fill out all required fields."
}

// SubmitInput is the add-pet form.
type SubmitInput struct {
	Name         string
	Species      string
	Breed        string
	Age          string
	Gender       string
	Location     string
	Description  string
	HealthStatus string
	Vaccinated   bool
	AdoptionFee  float64
	SpecialNeeds bool
	Image        uploads.Image
	SubmittedBy  *uuid.UUID
}

// Validate checks the required fields without touching the network.
func (in SubmitInput) Validate() error {
	missing := validation.MissingFields([][2]string{
		{"name", in.Name},
		{"species", in.Species},
		{"location", in.Location},
	})
	if len(in.Image.Data) == 0 {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Submitter uploads the picture and then inserts the listing.
type Submitter struct {
	Service  *Service
	Uploader uploads.Uploader
}

// Submit validates, uploads, inserts. When the insert fails the uploaded image is
// destroyed again so no orphan is left on the image host.
func (s *Submitter) Submit(ctx context.Context, in SubmitInput) (*domain.Listing, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	up, err := s.Uploader.Upload(ctx, in.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageUpload, err)
	}

	listing := &domain.Listing{
		Name:          strings.TrimSpace(in.Name),
		Species:       in.Species,
		Breed:         optional(in.Breed),
		Age:           parseAge(in.Age),
		Gender:        optional(in.Gender),
		Location:      strings.TrimSpace(in.Location),
		Description:   optional(in.Description),
		ImageURL:      up.SecureURL,
		ImagePublicID: up.PublicID,
		HealthStatus:  optional(in.HealthStatus),
		Vaccinated:    in.Vaccinated,
		AdoptionFee:   in.AdoptionFee,
		SpecialNeeds:  in.SpecialNeeds,
	}

	err = s.Service.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewPetEvent(listing.ID, domain.PetEventCreated, in.SubmittedBy, map[string]interface{}{
			"species":   listing.Species,
			"image_url": listing.ImageURL,
		})).Error
	})
	if err == nil {
		return listing, nil
	}

	insertErr := fmt.Errorf("%w: %w", ErrSaveFailed, err)
	// The request context may be the reason the insert failed; compensate on a fresh one.
	if derr := s.Uploader.Destroy(context.WithoutCancel(ctx), up.PublicID); derr != nil {
		log.Error().Err(derr).Str("public_id", up.PublicID).Msg("listings: failed to remove orphaned upload")
		return nil, errors.Join(insertErr, fmt.Errorf("destroy upload %s: %w", up.PublicID, derr))
	}
	return nil, insertErr
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// parseAge reads the leading integer of s ("3 years" is 3). No digits gives nil.
func parseAge(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}
