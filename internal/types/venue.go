package types

// Venue is a candidate restaurant supplied by the places collaborator.
// OpenNow is nil when the venue publishes no opening hours; the selection
// policy treats unknown as open.
type Venue struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       *float64 `json:"rating,omitempty"`
	PriceLevel   string   `json:"price_level,omitempty"`
	Types        []string `json:"types,omitempty"`
	MapsURL      string   `json:"maps_url,omitempty"`
	OpenNow      *bool    `json:"open_now,omitempty"`
	WeekdayHours []string `json:"weekday_hours,omitempty"`
}

// IsOpen reports whether the venue should be considered open. Venues without
// opening-hours data are assumed open so incomplete data never over-filters.
func (v Venue) IsOpen() bool {
	return v.OpenNow == nil || *v.OpenNow
}
