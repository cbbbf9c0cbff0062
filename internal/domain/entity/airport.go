package entity

import "time"

// Airport is one row of the reference airport dataset used by destination
// expansion and coordinate lookup.
type Airport struct {
	ID          uint
	IATA        string
	Name        string
	City        string
	Country     string
	CountryCode string
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
