package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo is the metadata row for one stored image of an asset.
type Photo struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ServiceID    uuid.UUID `gorm:"column:service_id;type:uuid;not null;index" json:"service_id"`
	StoragePath  string    `gorm:"column:storage_path;not null" json:"storage_path"`
	FileName     string    `gorm:"column:file_name" json:"file_name"`
	FileSize     int64     `gorm:"column:file_size" json:"file_size"`
	IsPrimary    bool      `gorm:"column:is_primary;not null" json:"is_primary"`
	DisplayOrder int       `gorm:"column:display_order;not null" json:"display_order"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`

	URL string `gorm:"-" json:"url,omitempty"`
}

func (Photo) TableName() string {
	return "service_photos"
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
