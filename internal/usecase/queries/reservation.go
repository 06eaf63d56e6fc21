package queries

import (
	"context"
	"time"

	"stayfinder/internal/domain/principal"
	"stayfinder/internal/infra"
	"stayfinder/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrListingNotFound     = errs.New("listing not found")
	ErrInvalidRange        = errs.New("invalid date range")
	ErrForbidden           = errs.New("not authorized to view this reservation")
)

// Keyset marks the position after which a list page resumes.
type Keyset struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByGuest(ctx context.Context, guestID uuid.UUID, after *Keyset, limit int32) ([]*ReservationListItem, error)
	ListByHost(ctx context.Context, hostID uuid.UUID, after *Keyset, limit int32) ([]*ReservationListItem, error)
	FindActiveForListing(ctx context.Context, listingID uuid.UUID) ([]*ActiveStay, error)
}

type ReservationQueries interface {
	GetByID(ctx context.Context, actor principal.Principal, id uuid.UUID) (*ReservationView, error)
	ListFor(ctx context.Context, actor principal.Principal, role principal.Role, after *Cursor, limit int) ([]*ReservationListItem, *Cursor, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

// GetByID is visible to the booking guest and to the host of the booked
// listing; anyone else gets an opaque forbidden error.
func (q *reservationQueriesImpl) GetByID(ctx context.Context, actor principal.Principal, id uuid.UUID) (*ReservationView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Wrap(err, "failed to find reservation")
	}

	if view.GuestID != actor.ID && view.ListingHostID != actor.ID {
		return nil, ErrForbidden
	}

	return view, nil
}

// ListFor returns reservations newest first: the actor's own stays when
// asked as a guest, or every reservation on the actor's listings when asked
// as a host.
func (q *reservationQueriesImpl) ListFor(ctx context.Context, actor principal.Principal, role principal.Role, after *Cursor, limit int) ([]*ReservationListItem, *Cursor, error) {
	limit = ValidateLimit(limit)

	var keyset *Keyset
	if after != nil && after.After != "" {
		t, id, err := DecodeAfterCursor(after.After)
		if err != nil {
			return nil, nil, errs.Wrap(err, "invalid cursor")
		}
		keyset = &Keyset{CreatedAt: t, ID: id}
	}

	var (
		items []*ReservationListItem
		err   error
	)
	switch role {
	case principal.RoleHost:
		items, err = q.store.ListByHost(ctx, actor.ID, keyset, int32(limit))
	default:
		items, err = q.store.ListByGuest(ctx, actor.ID, keyset, int32(limit))
	}
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to list reservations")
	}

	var next *Cursor
	if len(items) == limit {
		last := items[len(items)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
	}

	return items, next, nil
}
