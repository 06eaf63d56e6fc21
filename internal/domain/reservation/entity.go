package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCheckInPast       = errors.New("check-in date cannot be in the past")
	ErrNoGuests          = errors.New("at least one guest is required")
	ErrTooManyGuests     = errors.New("guest count exceeds listing capacity")
	ErrListingInactive   = errors.New("listing is not active")
	ErrNegativePrice     = errors.New("price cannot be negative")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Reservation struct {
	id        uuid.UUID
	listingID uuid.UUID
	guestID   uuid.UUID
	stay      StayPeriod
	guests    int
	price     Money
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

// newReservation assumes its inputs were validated by the Factory; the total
// price is fixed here and never recomputed.
func newReservation(
	listingID, guestID uuid.UUID,
	stay StayPeriod,
	guests int,
	price Money,
	now time.Time,
) (*Reservation, error) {
	if price.Cents() < 0 {
		return nil, ErrNegativePrice
	}

	return &Reservation{
		id:        uuid.New(),
		listingID: listingID,
		guestID:   guestID,
		stay:      stay,
		guests:    guests,
		price:     price,
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructReservation(
	id, listingID, guestID uuid.UUID,
	stay StayPeriod,
	guests int,
	price Money,
	status Status,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:        id,
		listingID: listingID,
		guestID:   guestID,
		stay:      stay,
		guests:    guests,
		price:     price,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (r *Reservation) IsActive() bool {
	return r.status.IsActive()
}

func (r *Reservation) IsOwnedBy(guestID uuid.UUID) bool {
	return r.guestID == guestID
}

func (r *Reservation) ConflictsWith(other *Reservation) bool {
	return r.listingID == other.listingID &&
		r.IsActive() && other.IsActive() &&
		r.stay.Overlaps(other.stay)
}

func (r *Reservation) ID() uuid.UUID        { return r.id }
func (r *Reservation) ListingID() uuid.UUID { return r.listingID }
func (r *Reservation) GuestID() uuid.UUID   { return r.guestID }
func (r *Reservation) Stay() StayPeriod     { return r.stay }
func (r *Reservation) Guests() int          { return r.guests }
func (r *Reservation) Price() Money         { return r.price }
func (r *Reservation) Status() Status       { return r.status }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }
