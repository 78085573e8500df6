package domain

// AssetClass is the top-level kind of a rentable unit. It is chosen once when the
// unit is created and never changes afterwards.
type AssetClass string

const (
	ClassTrailer   AssetClass = "trailer"
	ClassEquipment AssetClass = "equipment"
	ClassDumpster  AssetClass = "dumpster"
	ClassRV        AssetClass = "rv"
	ClassStorage   AssetClass = "storage"
)

// ClassInfo describes the choices offered for one asset class.
type ClassInfo struct {
	Class          AssetClass `json:"asset_class"`
	Label          string     `json:"label"`
	SubCategories  []string   `json:"sub_categories"`
	CommonFeatures []string   `json:"common_features"`
}

// ClassCatalog lists every supported class in picker order.
var ClassCatalog = []ClassInfo{
	{
		Class: ClassTrailer,
		Label: "Trailer",
		SubCategories: []string{
			"utility", "enclosed", "car_hauler", "dump", "equipment", "flatbed", "gooseneck", "horse", "boat",
		},
		CommonFeatures: []string{
			"Spare Tire", "Ramps", "D-Rings", "LED Lights", "Electric Brakes", "Winch", "Side Door", "Tie-Down Straps",
		},
	},
	{
		Class: ClassEquipment,
		Label: "Equipment",
		SubCategories: []string{
			"excavator", "skid_steer", "backhoe", "loader", "forklift", "lift", "compactor", "generator", "other",
		},
		CommonFeatures: []string{
			"Enclosed Cab", "Air Conditioning", "Quick Attach", "Auxiliary Hydraulics", "Rubber Tracks", "Backup Camera",
		},
	},
	{
		Class: ClassDumpster,
		Label: "Dumpster",
		SubCategories: []string{
			"roll_off", "front_load", "rear_load", "compactor",
		},
		CommonFeatures: []string{
			"Walk-In Door", "Tarp Cover", "Lockable Lid", "Wheels", "Same Day Delivery",
		},
	},
	{
		Class:          ClassRV,
		Label:          "RV",
		SubCategories:  []string{"class_a", "class_b", "class_c", "travel_trailer", "fifth_wheel", "pop_up"},
		CommonFeatures: []string{"Generator", "Awning", "Slide Out", "Pet Friendly", "Bike Rack"},
	},
	{
		Class:          ClassStorage,
		Label:          "Storage",
		SubCategories:  []string{"container", "portable_unit", "office_trailer"},
		CommonFeatures: []string{"Roll-Up Door", "Shelving", "Climate Control", "Lock Box"},
	},
}

// Valid reports whether c is a known class.
func (c AssetClass) Valid() bool {
	_, ok := ClassByName(c)
	return ok
}

// ClassByName returns the catalog entry for c.
func ClassByName(c AssetClass) (ClassInfo, bool) {
	for _, info := range ClassCatalog {
		if info.Class == c {
			return info, true
		}
	}
	return ClassInfo{}, false
}

// SubCategoryAllowed reports whether sub belongs to class. An empty sub-category is always allowed.
func SubCategoryAllowed(class AssetClass, sub string) bool {
	if sub == "" {
		return true
	}
	info, ok := ClassByName(class)
	if !ok {
		return false
	}
	for _, s := range info.SubCategories {
		if s == sub {
			return true
		}
	}
	return false
}

// IsCommonFeature reports whether label is one of the quick-add features of class.
func IsCommonFeature(class AssetClass, label string) bool {
	info, ok := ClassByName(class)
	if !ok {
		return false
	}
	for _, f := range info.CommonFeatures {
		if f == label {
			return true
		}
	}
	return false
}
