package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing is a business in the public directory. It owns the fleet of assets.
type Listing struct {
	ListingID    uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	BusinessName string    `gorm:"column:business_name;not null" json:"business_name"`
	Category     string    `gorm:"column:category;not null" json:"category"`
	Description  *string   `gorm:"column:description" json:"description"`
	Phone        *string   `gorm:"column:phone" json:"phone"`
	Email        *string   `gorm:"column:email" json:"email"`
	Website      *string   `gorm:"column:website" json:"website"`
	Address      *string   `gorm:"column:address" json:"address"`
	City         *string   `gorm:"column:city" json:"city"`
	State        *string   `gorm:"column:state" json:"state"`
	ZipCode      *string   `gorm:"column:zip_code" json:"zip_code"`
	IsPublished  bool      `gorm:"column:is_published;not null" json:"is_published"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "business_listings"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}
