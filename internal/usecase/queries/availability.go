package queries

import (
	"context"
	"time"

	"stayfinder/internal/domain/reservation"
	"stayfinder/internal/pkg/errs"

	"github.com/google/uuid"
)

type AvailabilityQueries interface {
	// Check is advisory only. It reads the active set without taking the
	// per-listing serialization point, so a caller who sees "available" and
	// then books must still treat a dates conflict as a normal outcome of
	// the gap between the two calls.
	Check(ctx context.Context, listingID uuid.UUID, checkIn, checkOut time.Time) (*AvailabilityView, error)
}

type availabilityQueriesImpl struct {
	store ReservationReadStore
}

func NewAvailabilityQueries(store ReservationReadStore) AvailabilityQueries {
	return &availabilityQueriesImpl{store: store}
}

func (q *availabilityQueriesImpl) Check(ctx context.Context, listingID uuid.UUID, checkIn, checkOut time.Time) (*AvailabilityView, error) {
	stay, err := reservation.NewStayPeriod(checkIn, checkOut)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidRange)
	}

	active, err := q.store.FindActiveForListing(ctx, listingID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load active reservations")
	}

	conflicts := 0
	for _, a := range active {
		existing, err := reservation.NewStayPeriod(a.CheckIn, a.CheckOut)
		if err != nil {
			// Stored periods are validated on write; skip rather than fail the
			// whole advisory read on a corrupt row.
			continue
		}
		if stay.Overlaps(existing) {
			conflicts++
		}
	}

	return &AvailabilityView{
		Available:     conflicts == 0,
		ConflictCount: conflicts,
	}, nil
}
