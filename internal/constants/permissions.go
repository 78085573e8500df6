package constants

const (
	ManageListings = "manage_listings"
	ManageFleet    = "manage_fleet"
	ViewAnalytics  = "view_analytics"
)
