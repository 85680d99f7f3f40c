package models

import "time"

// StationAvailability mirrors the stations.availability column, which doubles
// as the mutual-exclusion marker for active sessions.
type StationAvailability string

const (
	StationAvailable StationAvailability = "available"
	StationInUse     StationAvailability = "in_use"
)

// Station is a bookable resource hosting at most one active session.
type Station struct {
	ID           int64               `db:"id" json:"id"`
	Name         string              `db:"name" json:"name"`
	Type         string              `db:"type" json:"type"`
	DefaultRate  float64             `db:"default_hourly_rate" json:"default_hourly_rate"`
	Availability StationAvailability `db:"availability" json:"availability"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}
