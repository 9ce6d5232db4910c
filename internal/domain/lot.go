package domain

import "time"

// ParkingLot is a parking facility with a fixed capacity and hourly price.
type ParkingLot struct {
	ID            string
	Name          string
	Location      string
	Address       string
	Latitude      float64
	Longitude     float64
	TotalCapacity int
	PricePerHour  float64
	Features      []string
	Rating        float64
	CreatedAt     time.Time
}

// NearbyLot is a lot annotated with its distance from a search center.
type NearbyLot struct {
	Lot        *ParkingLot
	DistanceKm float64
}
