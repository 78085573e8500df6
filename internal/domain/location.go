package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a pickup/dropoff point for an asset.
type Location struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ServiceID        uuid.UUID `gorm:"column:service_id;type:uuid;not null;index" json:"service_id"`
	LocationName     string    `gorm:"column:location_name;not null" json:"location_name"`
	Address          *string   `gorm:"column:address" json:"address"`
	City             *string   `gorm:"column:city" json:"city"`
	State            *string   `gorm:"column:state" json:"state"`
	ZipCode          *string   `gorm:"column:zip_code" json:"zip_code"`
	Latitude         *float64  `gorm:"column:latitude" json:"latitude"`
	Longitude        *float64  `gorm:"column:longitude" json:"longitude"`
	IsPrimary        bool      `gorm:"column:is_primary;not null" json:"is_primary"`
	PickupAvailable  bool      `gorm:"column:pickup_available;not null" json:"pickup_available"`
	DropoffAvailable bool      `gorm:"column:dropoff_available;not null" json:"dropoff_available"`
	Notes            *string   `gorm:"column:notes" json:"notes"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Location) TableName() string {
	return "service_locations"
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
