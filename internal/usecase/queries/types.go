package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type ReservationView struct {
	ID              uuid.UUID `json:"id"`
	ListingID       uuid.UUID `json:"listing_id"`
	ListingHostID   uuid.UUID `json:"listing_host_id"`
	GuestID         uuid.UUID `json:"guest_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Nights          int       `json:"nights"`
	Guests          int       `json:"guests"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ReservationListItem struct {
	ID              uuid.UUID `json:"id"`
	ListingID       uuid.UUID `json:"listing_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Guests          int       `json:"guests"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	CreatedAt       time.Time `json:"created_at"`
}

// ActiveStay is the slice of a reservation the advisory availability check
// needs: its identity and dates, nothing about the holding guest.
type ActiveStay struct {
	ID       uuid.UUID
	CheckIn  time.Time
	CheckOut time.Time
}

type AvailabilityView struct {
	Available     bool `json:"available"`
	ConflictCount int  `json:"conflict_count"`
}
