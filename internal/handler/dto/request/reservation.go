package request

import (
	"errors"
	"time"

	"stayfinder/internal/usecase/commands"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("dates must be in YYYY-MM-DD format")

// Dates travel as calendar days; the engine owns time-of-day semantics.
type CreateReservationRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
	CheckIn   string    `json:"check_in" binding:"required"`
	CheckOut  string    `json:"check_out" binding:"required"`
	Guests    int       `json:"guests" binding:"required,min=1"`
}

func (r CreateReservationRequest) ToParams() (commands.CreateReservationParams, error) {
	checkIn, err := time.Parse(dateLayout, r.CheckIn)
	if err != nil {
		return commands.CreateReservationParams{}, ErrInvalidDate
	}
	checkOut, err := time.Parse(dateLayout, r.CheckOut)
	if err != nil {
		return commands.CreateReservationParams{}, ErrInvalidDate
	}

	return commands.CreateReservationParams{
		ListingID: r.ListingID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    r.Guests,
	}, nil
}

type AvailabilityRequest struct {
	CheckIn  string `form:"check_in" binding:"required"`
	CheckOut string `form:"check_out" binding:"required"`
}

func (r AvailabilityRequest) Parse() (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.Parse(dateLayout, r.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	checkOut, err = time.Parse(dateLayout, r.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	return checkIn, checkOut, nil
}
