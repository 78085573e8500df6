package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceUnitPerDay is the unit shown next to the canonical price.
const PriceUnitPerDay = "per day"

// ErrEmptyFeature is returned when a blank feature label is appended.
var ErrEmptyFeature = errors.New("Feature cannot be empty")

// Features is the ordered free-text feature list of an asset, stored as a json array.
type Features []string

// Append returns f with label added. Blank labels are rejected; duplicates are not.
func (f Features) Append(label string) (Features, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return f, ErrEmptyFeature
	}
	out := make(Features, 0, len(f)+1)
	out = append(out, f...)
	return append(out, label), nil
}

// Has reports whether label is already in the list.
func (f Features) Has(label string) bool {
	for _, v := range f {
		if v == label {
			return true
		}
	}
	return false
}

// MarshalJSON keeps an empty list as [] instead of null.
func (f Features) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(f))
}

// Scan implements sql.Scanner for the json column.
func (f *Features) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*f = Features{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for Features")
	}
	if len(raw) == 0 {
		*f = Features{}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil {
		return err
	}
	*f = arr
	return nil
}

// Value implements driver.Valuer for the json column.
func (f Features) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Asset is a rentable unit (trailer, equipment, dumpster, ...) owned by one listing.
type Asset struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID   uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Description *string    `gorm:"column:description" json:"description"`
	AssetClass  AssetClass `gorm:"column:asset_class;type:varchar(20);not null" json:"asset_class"`
	SubCategory *string    `gorm:"column:sub_category" json:"sub_category"`

	Year   *int     `gorm:"column:year" json:"year"`
	Make   *string  `gorm:"column:make" json:"make"`
	Model  *string  `gorm:"column:model" json:"model"`
	Length *float64 `gorm:"column:length_ft" json:"length_ft"`
	Width  *float64 `gorm:"column:width_ft" json:"width_ft"`
	Height *float64 `gorm:"column:height_ft" json:"height_ft"`
	Weight *float64 `gorm:"column:empty_weight" json:"empty_weight"`
	Specs  Specs    `gorm:"column:specs;type:jsonb" json:"specs"`

	DailyRate    *float64 `gorm:"column:daily_rate" json:"daily_rate"`
	ThreeDayRate *float64 `gorm:"column:three_day_rate" json:"three_day_rate"`
	WeeklyRate   *float64 `gorm:"column:weekly_rate" json:"weekly_rate"`
	MonthlyRate  *float64 `gorm:"column:monthly_rate" json:"monthly_rate"`
	Price        *float64 `gorm:"column:price" json:"price"`
	PriceUnit    string   `gorm:"column:price_unit;type:varchar(20)" json:"price_unit"`

	DeliveryAvailable  bool     `gorm:"column:delivery_available;not null" json:"delivery_available"`
	DeliveryRangeMiles *float64 `gorm:"column:delivery_range_miles" json:"delivery_range_miles"`
	DeliveryFee        *float64 `gorm:"column:delivery_fee" json:"delivery_fee"`
	PickupAvailable    bool     `gorm:"column:pickup_available;not null" json:"pickup_available"`
	OperatorRequired   bool     `gorm:"column:operator_required;not null" json:"operator_required"`

	Features     Features  `gorm:"column:features;type:jsonb" json:"features"`
	IsAvailable  bool      `gorm:"column:is_available;not null" json:"is_available"`
	DisplayOrder int       `gorm:"column:display_order;not null" json:"display_order"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`

	Photos []Photo `gorm:"foreignKey:ServiceID" json:"photos"`
}

func (Asset) TableName() string {
	return "business_services"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// MarshalJSON adds the derived display_price to the stored columns.
func (a Asset) MarshalJSON() ([]byte, error) {
	type stored Asset
	return json.Marshal(struct {
		stored
		DisplayPrice *float64 `json:"display_price"`
	}{stored(a), a.DisplayPrice()})
}

// DisplayPrice is the canonical storefront price, derived from the rate tiers on read.
func (a *Asset) DisplayPrice() *float64 {
	return ResolvePrice(a.DailyRate, a.Price)
}

// ResolvePrice picks daily when it is set and non-zero, otherwise the legacy price.
func ResolvePrice(daily, legacy *float64) *float64 {
	if daily != nil && *daily != 0 {
		v := *daily
		return &v
	}
	if legacy == nil {
		return nil
	}
	v := *legacy
	return &v
}
