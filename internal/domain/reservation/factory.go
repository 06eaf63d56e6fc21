package reservation

import (
	"stayfinder/internal/domain/listing"
	"stayfinder/internal/pkg/clock"

	"github.com/google/uuid"
)

type Factory struct {
	Clock           clock.Clock
	PriceCalculator PriceCalculator
}

func NewFactory(clock clock.Clock, priceCalculator PriceCalculator) *Factory {
	return &Factory{
		Clock:           clock,
		PriceCalculator: priceCalculator,
	}
}

// CreateReservation validates a requested stay against the listing snapshot
// and builds a pending hold with its price fixed. It does not decide
// conflicts; only the store's insert-if-available may do that.
func (f *Factory) CreateReservation(
	lst *listing.Listing,
	guestID uuid.UUID,
	stay StayPeriod,
	guests int,
) (*Reservation, error) {
	if !lst.IsActive() {
		return nil, ErrListingInactive
	}
	if guests < 1 {
		return nil, ErrNoGuests
	}
	if !lst.CanAccommodate(guests) {
		return nil, ErrTooManyGuests
	}

	now := f.Clock.Now()
	if stay.StartsBefore(now) {
		return nil, ErrCheckInPast
	}

	price := f.PriceCalculator.Quote(lst, stay)

	return newReservation(lst.ID(), guestID, stay, guests, price, now)
}
