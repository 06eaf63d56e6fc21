package listing

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidNightlyRate = errors.New("nightly rate must be positive")
	ErrInvalidMaxGuests   = errors.New("max guests must be positive")
)

// Listing is the slice of the external catalog this engine reads: enough to
// price a stay and validate a booking request. The catalog's CRUD and search
// live outside this service.
type Listing struct {
	id               uuid.UUID
	hostID           uuid.UUID
	nightlyRateCents int64
	maxGuests        int
	active           bool
}

func NewListing(id, hostID uuid.UUID, nightlyRateCents int64, maxGuests int, active bool) (*Listing, error) {
	if nightlyRateCents <= 0 {
		return nil, ErrInvalidNightlyRate
	}
	if maxGuests <= 0 {
		return nil, ErrInvalidMaxGuests
	}

	return &Listing{
		id:               id,
		hostID:           hostID,
		nightlyRateCents: nightlyRateCents,
		maxGuests:        maxGuests,
		active:           active,
	}, nil
}

func (l *Listing) ID() uuid.UUID           { return l.id }
func (l *Listing) HostID() uuid.UUID       { return l.hostID }
func (l *Listing) NightlyRateCents() int64 { return l.nightlyRateCents }
func (l *Listing) MaxGuests() int          { return l.maxGuests }
func (l *Listing) IsActive() bool          { return l.active }

func (l *Listing) CanAccommodate(guests int) bool {
	return guests >= 1 && guests <= l.maxGuests
}
