package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"petadopt-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPetNotFound    = errors.New("Pet not found")
	ErrToggleInFlight = errors.New("A favorite change for this pet is already in progress")
)

type key struct {
	user uuid.UUID
	pet  uint
}

// inFlight admits one toggle per (user, pet) at a time.
type inFlight struct {
	mu   sync.Mutex
	keys map[key]struct{}
}

func (f *inFlight) acquire(k key) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = make(map[key]struct{})
	}
	if _, busy := f.keys[k]; busy {
		return false
	}
	f.keys[k] = struct{}{}
	return true
}

func (f *inFlight) release(k key) {
	f.mu.Lock()
	delete(f.keys, k)
	f.mu.Unlock()
}

type Service struct {
	DB *gorm.DB

	guard inFlight
}

func (s *Service) IsFavorited(ctx context.Context, userID uuid.UUID, petID uint) (bool, error) {
	return isFavorited(s.DB.WithContext(ctx), userID, petID)
}

func isFavorited(db *gorm.DB, userID uuid.UUID, petID uint) (bool, error) {
	var count int64
	err := db.Model(&domain.Favorite{}).Where("user_id = ? AND pet_id = ?", userID, petID).Count(&count).Error
	return count > 0, err
}

// Toggle flips the favorite and returns the new state. On error the previous state
// is returned. A second toggle for the same pet while one is running gets
// ErrToggleInFlight. The counter moves only when this call changed a row.
func (s *Service) Toggle(ctx context.Context, userID uuid.UUID, petID uint) (bool, error) {
	k := key{user: userID, pet: petID}
	if !s.guard.acquire(k) {
		return false, ErrToggleInFlight
	}
	defer s.guard.release(k)

	var before, after bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pet domain.Listing
		if err := tx.Select("id").Where("id = ?", petID).Take(&pet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPetNotFound
			}
			return err
		}

		var err error
		before, err = isFavorited(tx, userID, petID)
		if err != nil {
			return err
		}

		delta, event := int64(1), domain.PetEventFavorited
		if before {
			delta, event = -1, domain.PetEventUnfavorited
			res := tx.Where("user_id = ? AND pet_id = ?", userID, petID).Delete(&domain.Favorite{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// removed by another instance, which also owns the counter change
				after = false
				return nil
			}
		} else {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&domain.Favorite{UserID: userID, PetID: petID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				after = true
				return nil
			}
		}

		if err := tx.Model(&domain.Listing{}).Where("id = ?", petID).
			UpdateColumn("favorites_count", gorm.Expr("favorites_count + ?", delta)).Error; err != nil {
			return err
		}
		actor := userID
		if err := tx.Create(domain.NewPetEvent(petID, event, &actor, nil)).Error; err != nil {
			return err
		}
		after = !before
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPetNotFound) {
			return false, err
		}
		return before, fmt.Errorf("toggle favorite: %w", err)
	}
	return after, nil
}

// List returns the user's favorites with their pets, newest first. Never nil.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	favs := []domain.Favorite{}
	err := s.DB.WithContext(ctx).
		Preload("Pet").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("pet_id DESC").
		Find(&favs).Error
	if err != nil {
		return []domain.Favorite{}, fmt.Errorf("Failed to fetch favorites: %w", err)
	}
	return favs, nil
}
