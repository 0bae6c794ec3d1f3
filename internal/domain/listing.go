package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Listing is a pet offered for adoption (pets table).
type Listing struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Species        string    `gorm:"column:species;not null;index" json:"species"`
	Breed          *string   `gorm:"column:breed" json:"breed"`
	Age            *int      `gorm:"column:age" json:"age"`
	Gender         *string   `gorm:"column:gender" json:"gender"`
	Location       string    `gorm:"column:location;not null" json:"location"`
	Description    *string   `gorm:"column:description" json:"description"`
	ImageURL       string    `gorm:"column:image_url;not null" json:"image_url"`
	ImagePublicID  string    `gorm:"column:image_public_id" json:"-"`
	HealthStatus   *string   `gorm:"column:health_status" json:"health_status"`
	Vaccinated     bool      `gorm:"column:vaccinated;not null;default:false" json:"vaccinated"`
	AdoptionFee    float64   `gorm:"column:adoption_fee;type:decimal(10,2);not null;default:0" json:"adoption_fee"`
	SpecialNeeds   bool      `gorm:"column:special_needs;not null;default:false;index" json:"special_needs"`
	FavoritesCount int64     `gorm:"column:favorites_count;not null;default:0" json:"favorites_count"`
	NameKey        string    `gorm:"column:name_key;not null;default:''" json:"-"`
	BreedKey       string    `gorm:"column:breed_key;not null;default:''" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "pets"
}

// BeforeSave keeps species lowercase and fills the search keys. Keys are
// lowercased here so matching does not depend on the database's LOWER(),
// which is ASCII-only on SQLite.
func (l *Listing) BeforeSave(tx *gorm.DB) error {
	l.Species = strings.ToLower(strings.TrimSpace(l.Species))
	l.NameKey = SearchKey(l.Name)
	l.BreedKey = ""
	if l.Breed != nil {
		l.BreedKey = SearchKey(*l.Breed)
	}
	return nil
}

// SearchKey is the case-folded form text filters are matched against.
func SearchKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
