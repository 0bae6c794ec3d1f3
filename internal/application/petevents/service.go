package petevents

import (
	"context"
	"errors"

	"petadopt-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrPetNotFound = errors.New("Pet not found")

type Service struct {
	DB *gorm.DB
}

// ForPet returns the activity of one listing, oldest first.
func (s *Service) ForPet(ctx context.Context, petID uint) ([]domain.PetEvent, error) {
	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&domain.Listing{}).Where("id = ?", petID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrPetNotFound
	}

	events := []domain.PetEvent{}
	if err := db.Where("pet_id = ?", petID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
