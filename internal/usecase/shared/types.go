package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ListingSnapshot struct {
	ID               uuid.UUID
	HostID           uuid.UUID
	NightlyRateCents int64
	MaxGuests        int
	IsActive         bool
}

// Minimal snapshot for command read operations
type ReservationSnapshot struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	GuestID   uuid.UUID
	Status    string
	CheckIn   time.Time
	CheckOut  time.Time
	CreatedAt time.Time
}

type IdempotencyRecord struct {
	Key                 uuid.UUID
	PrincipalID         uuid.UUID
	Status              string
	RequestHash         string
	ResultReservationID *uuid.UUID
	ExpiresAt           time.Time
}

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)

// DatesConflictError reports which active reservations blocked an
// insert-if-available. The ids are for diagnostics and conflict counting;
// they never expose the holding guests.
type DatesConflictError struct {
	ConflictingIDs []uuid.UUID
}

func (e *DatesConflictError) Error() string {
	return fmt.Sprintf("requested dates conflict with %d active reservation(s)", len(e.ConflictingIDs))
}
