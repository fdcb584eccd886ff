package types

import (
	"errors"
	"fmt"
)

var ErrMissingCoordinates = errors.New("missing required coordinates (latitude/longitude)")

const (
	fallbackTitle   = "Unknown Location"
	fallbackAddress = "No address provided"
)

// LocationInput carries raw location data from an inbound message. Title and
// address may be blank; coordinates are pointers because their absence must be
// distinguishable from a literal zero.
type LocationInput struct {
	Title     string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// UserLocation is an immutable, validated user location.
type UserLocation struct {
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewUserLocation validates raw location input and fills in display fallbacks
// for missing title/address. Missing coordinates are a validation error.
func NewUserLocation(in LocationInput) (UserLocation, error) {
	if in.Latitude == nil || in.Longitude == nil {
		return UserLocation{}, fmt.Errorf("invalid location data: %w", ErrMissingCoordinates)
	}

	title := in.Title
	if title == "" {
		title = fallbackTitle
	}
	address := in.Address
	if address == "" {
		address = fallbackAddress
	}

	return UserLocation{
		Title:     title,
		Address:   address,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
	}, nil
}

func (l UserLocation) String() string {
	return fmt.Sprintf("%s (%s)", l.Title, l.Address)
}
