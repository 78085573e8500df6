package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Interaction types recorded against an asset.
const (
	InteractionUnitView    = "unit_view"
	InteractionUnitInquiry = "unit_inquiry"
	InteractionFormSubmit  = "form_submit"
)

// Interaction is one logged visitor action on an asset. Rows are append-only.
type Interaction struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ServiceID       uuid.UUID      `gorm:"column:service_id;type:uuid;not null;index" json:"service_id"`
	ListingID       *uuid.UUID     `gorm:"column:listing_id;type:uuid" json:"listing_id"`
	InteractionType string         `gorm:"column:interaction_type;type:varchar(30);not null" json:"interaction_type"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt       time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (Interaction) TableName() string {
	return "interactions"
}

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsInquiry reports whether t counts as an inquiry.
func IsInquiry(t string) bool {
	return t == InteractionUnitInquiry || t == InteractionFormSubmit
}

// ValidInteractionType reports whether t is a recordable interaction type.
func ValidInteractionType(t string) bool {
	return t == InteractionUnitView || IsInquiry(t)
}
