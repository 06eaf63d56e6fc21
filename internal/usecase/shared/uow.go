package shared

import (
	"context"
	"time"

	"stayfinder/internal/domain/reservation"

	"github.com/google/uuid"
)

// UnitOfWork is the single gateway to mutable state. Within runs fn inside
// one transaction whose writes all commit or all roll back; the reservation
// repository it exposes serializes conflicting work per listing, so
// insert-if-available behaves as if applied one at a time for a given
// listing while unrelated listings proceed in parallel.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: command-side validation reads outside any transaction
	Reads() CommandReads
}

type Tx interface {
	Reservations() ReservationRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	Reads() CommandReads
}

// ReservationRepository owns the two atomic entry points of the engine.
// Nothing else may mutate reservation state.
type ReservationRepository interface {
	// InsertIfAvailable re-checks the listing's active reservations against
	// the stay and persists the hold only when none overlap. A losing race
	// returns a *DatesConflictError.
	InsertIfAvailable(ctx context.Context, res *reservation.Reservation) error
	// TransitionStatus is a compare-and-swap: it succeeds only when the
	// current status equals from, otherwise the state is stale.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to reservation.Status, now time.Time) error
	// ExpirePendingBefore cancels pending holds created before the cutoff,
	// returning how many were released.
	ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, key, principalID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) error
	MarkCompleted(ctx context.Context, key, principalID uuid.UUID, resultReservationID uuid.UUID) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}

type CommandReads interface {
	ListingByID(ctx context.Context, id uuid.UUID) (*ListingSnapshot, error)
	ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationSnapshot, error)
	IdempotencyByKey(ctx context.Context, key, principalID uuid.UUID) (*IdempotencyRecord, error)
}
