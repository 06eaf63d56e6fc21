package response

import (
	"time"

	"stayfinder/internal/usecase/queries"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type ReservationResponse struct {
	ID              uuid.UUID `json:"id"`
	ListingID       uuid.UUID `json:"listingId"`
	GuestID         uuid.UUID `json:"guestId"`
	CheckIn         string    `json:"checkIn"`
	CheckOut        string    `json:"checkOut"`
	Nights          int       `json:"nights"`
	Guests          int       `json:"guests"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type ReservationListResponse struct {
	ID              uuid.UUID `json:"id"`
	ListingID       uuid.UUID `json:"listingId"`
	CheckIn         string    `json:"checkIn"`
	CheckOut        string    `json:"checkOut"`
	Guests          int       `json:"guests"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ReservationPageResponse struct {
	Items      []*ReservationListResponse `json:"items"`
	NextCursor *string                    `json:"nextCursor,omitempty"`
}

type AvailabilityResponse struct {
	Available     bool `json:"available"`
	ConflictCount int  `json:"conflictCount"`
}

type ExpiredHoldsResponse struct {
	Released int64 `json:"released"`
}

func FromReservationView(rm *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:              rm.ID,
		ListingID:       rm.ListingID,
		GuestID:         rm.GuestID,
		CheckIn:         rm.CheckIn.Format(dateLayout),
		CheckOut:        rm.CheckOut.Format(dateLayout),
		Nights:          rm.Nights,
		Guests:          rm.Guests,
		Status:          rm.Status,
		TotalPriceCents: rm.TotalPriceCents,
		CreatedAt:       rm.CreatedAt,
		UpdatedAt:       rm.UpdatedAt,
	}
}

func FromReservationListItem(rm *queries.ReservationListItem) *ReservationListResponse {
	return &ReservationListResponse{
		ID:              rm.ID,
		ListingID:       rm.ListingID,
		CheckIn:         rm.CheckIn.Format(dateLayout),
		CheckOut:        rm.CheckOut.Format(dateLayout),
		Guests:          rm.Guests,
		Status:          rm.Status,
		TotalPriceCents: rm.TotalPriceCents,
		CreatedAt:       rm.CreatedAt,
	}
}

func FromAvailabilityView(av *queries.AvailabilityView) *AvailabilityResponse {
	return &AvailabilityResponse{
		Available:     av.Available,
		ConflictCount: av.ConflictCount,
	}
}
