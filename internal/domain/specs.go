package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// ErrSpecClassMismatch is returned when a specification variant does not belong to the asset class.
var ErrSpecClassMismatch = errors.New("Specification does not match asset class")

// TrailerSpec holds the trailer-only specification fields.
type TrailerSpec struct {
	HitchType           *string  `json:"hitch_type,omitempty"`
	BallSize            *string  `json:"ball_size,omitempty"`
	ElectricalConnector *string  `json:"electrical_connector,omitempty"`
	BrakeType           *string  `json:"brake_type,omitempty"`
	RampType            *string  `json:"ramp_type,omitempty"`
	DeckMaterial        *string  `json:"deck_material,omitempty"`
	GVWR                *float64 `json:"gvwr,omitempty"`
	PayloadCapacity     *float64 `json:"payload_capacity,omitempty"`
	DeckLength          *float64 `json:"deck_length,omitempty"`
	DeckWidth           *float64 `json:"deck_width,omitempty"`
	DeckHeight          *float64 `json:"deck_height,omitempty"`
	AxleCount           *int     `json:"axle_count,omitempty"`
}

// EquipmentSpec holds the equipment-only specification fields.
type EquipmentSpec struct {
	Horsepower          *float64 `json:"horsepower,omitempty"`
	FuelType            *string  `json:"fuel_type,omitempty"`
	OperatingHours      *float64 `json:"operating_hours,omitempty"`
	OperatingWeight     *float64 `json:"operating_weight,omitempty"`
	BucketCapacity      *float64 `json:"bucket_capacity,omitempty"`
	MaxDigDepth         *float64 `json:"max_dig_depth,omitempty"`
	LiftCapacity        *float64 `json:"lift_capacity,omitempty"`
	AttachmentsIncluded *string  `json:"attachments_included,omitempty"`
}

// DumpsterSpec holds the dumpster-only specification fields.
type DumpsterSpec struct {
	SizeYards        *float64 `json:"size_yards,omitempty"`
	WeightLimitTons  *float64 `json:"weight_limit_tons,omitempty"`
	GateType         *string  `json:"gate_type,omitempty"`
	RentalPeriodDays *int     `json:"rental_period_days,omitempty"`
	AllowedDebris    *string  `json:"allowed_debris,omitempty"`
	OverageFeePerTon *float64 `json:"overage_fee_per_ton,omitempty"`
}

// Specs is the class-dependent part of an asset. At most one variant is set and it
// must agree with the asset's class; rv and storage units carry no variant.
type Specs struct {
	Trailer   *TrailerSpec   `json:"trailer,omitempty"`
	Equipment *EquipmentSpec `json:"equipment,omitempty"`
	Dumpster  *DumpsterSpec  `json:"dumpster,omitempty"`
}

// Kind returns the class of the variant that is set, or "" when none is.
func (s Specs) Kind() AssetClass {
	switch {
	case s.Trailer != nil:
		return ClassTrailer
	case s.Equipment != nil:
		return ClassEquipment
	case s.Dumpster != nil:
		return ClassDumpster
	}
	return ""
}

// Validate checks that exactly the variant for class (or none) is present.
func (s Specs) Validate(class AssetClass) error {
	set := 0
	for _, present := range []bool{s.Trailer != nil, s.Equipment != nil, s.Dumpster != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return ErrSpecClassMismatch
	}
	if k := s.Kind(); k != "" && k != class {
		return ErrSpecClassMismatch
	}
	return nil
}

// Normalize nulls out every empty string and zero number, mirroring how the form
// coalesces falsy inputs before a write.
func (s Specs) Normalize() Specs {
	out := Specs{}
	if t := s.Trailer; t != nil {
		out.Trailer = &TrailerSpec{
			HitchType:           NullString(t.HitchType),
			BallSize:            NullString(t.BallSize),
			ElectricalConnector: NullString(t.ElectricalConnector),
			BrakeType:           NullString(t.BrakeType),
			RampType:            NullString(t.RampType),
			DeckMaterial:        NullString(t.DeckMaterial),
			GVWR:                NullFloat(t.GVWR),
			PayloadCapacity:     NullFloat(t.PayloadCapacity),
			DeckLength:          NullFloat(t.DeckLength),
			DeckWidth:           NullFloat(t.DeckWidth),
			DeckHeight:          NullFloat(t.DeckHeight),
			AxleCount:           NullInt(t.AxleCount),
		}
	}
	if e := s.Equipment; e != nil {
		out.Equipment = &EquipmentSpec{
			Horsepower:          NullFloat(e.Horsepower),
			FuelType:            NullString(e.FuelType),
			OperatingHours:      NullFloat(e.OperatingHours),
			OperatingWeight:     NullFloat(e.OperatingWeight),
			BucketCapacity:      NullFloat(e.BucketCapacity),
			MaxDigDepth:         NullFloat(e.MaxDigDepth),
			LiftCapacity:        NullFloat(e.LiftCapacity),
			AttachmentsIncluded: NullString(e.AttachmentsIncluded),
		}
	}
	if d := s.Dumpster; d != nil {
		out.Dumpster = &DumpsterSpec{
			SizeYards:        NullFloat(d.SizeYards),
			WeightLimitTons:  NullFloat(d.WeightLimitTons),
			GateType:         NullString(d.GateType),
			RentalPeriodDays: NullInt(d.RentalPeriodDays),
			AllowedDebris:    NullString(d.AllowedDebris),
			OverageFeePerTon: NullFloat(d.OverageFeePerTon),
		}
	}
	return out
}

// Scan implements sql.Scanner for the jsonb column.
func (s *Specs) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = Specs{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for Specs")
	}
	if len(raw) == 0 {
		*s = Specs{}
		return nil
	}
	*s = Specs{}
	return json.Unmarshal(raw, s)
}

// Value implements driver.Valuer for the jsonb column.
func (s Specs) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// NullString returns nil for nil or blank input, otherwise the trimmed value.
func NullString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// NullFloat returns nil for nil or zero input.
func NullFloat(f *float64) *float64 {
	if f == nil || *f == 0 {
		return nil
	}
	v := *f
	return &v
}

// NullInt returns nil for nil or zero input.
func NullInt(i *int) *int {
	if i == nil || *i == 0 {
		return nil
	}
	v := *i
	return &v
}
