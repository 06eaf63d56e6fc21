//go:build unit || e2e

package builder

import (
	"time"

	"stayfinder/internal/domain/listing"
	"stayfinder/internal/domain/reservation"
	reqdto "stayfinder/internal/handler/dto/request"
	"stayfinder/internal/pkg/clock"
	"stayfinder/internal/usecase/commands"
	"stayfinder/internal/usecase/queries"
	"stayfinder/internal/usecase/shared"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// BaseDay is the fixed "today" unit tests pin their clocks to.
var BaseDay = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type ReservationBuilder struct {
	ListingID        uuid.UUID
	HostID           uuid.UUID
	GuestID          uuid.UUID
	NightlyRateCents int64
	MaxGuests        int
	Active           bool
	CheckIn          time.Time
	CheckOut         time.Time
	Guests           int
	ServiceFeeCents  int64
	Now              time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		ListingID:        uuid.New(),
		HostID:           uuid.New(),
		GuestID:          uuid.New(),
		NightlyRateCents: 10000,
		MaxGuests:        4,
		Active:           true,
		CheckIn:          BaseDay.AddDate(0, 0, 7),
		CheckOut:         BaseDay.AddDate(0, 0, 10),
		Guests:           2,
		ServiceFeeCents:  2900,
		Now:              BaseDay,
	}
}

// Fluent builder methods
func (b *ReservationBuilder) WithListingID(id uuid.UUID) *ReservationBuilder {
	b.ListingID = id
	return b
}

func (b *ReservationBuilder) WithHostID(id uuid.UUID) *ReservationBuilder {
	b.HostID = id
	return b
}

func (b *ReservationBuilder) WithGuestID(id uuid.UUID) *ReservationBuilder {
	b.GuestID = id
	return b
}

func (b *ReservationBuilder) WithNightlyRateCents(cents int64) *ReservationBuilder {
	b.NightlyRateCents = cents
	return b
}

func (b *ReservationBuilder) WithMaxGuests(n int) *ReservationBuilder {
	b.MaxGuests = n
	return b
}

func (b *ReservationBuilder) Inactive() *ReservationBuilder {
	b.Active = false
	return b
}

func (b *ReservationBuilder) WithStay(checkIn, checkOut time.Time) *ReservationBuilder {
	b.CheckIn = checkIn
	b.CheckOut = checkOut
	return b
}

func (b *ReservationBuilder) WithStayDays(startOffset, endOffset int) *ReservationBuilder {
	b.CheckIn = BaseDay.AddDate(0, 0, startOffset)
	b.CheckOut = BaseDay.AddDate(0, 0, endOffset)
	return b
}

func (b *ReservationBuilder) WithGuests(n int) *ReservationBuilder {
	b.Guests = n
	return b
}

func (b *ReservationBuilder) WithServiceFeeCents(cents int64) *ReservationBuilder {
	b.ServiceFeeCents = cents
	return b
}

// Build methods
func (b *ReservationBuilder) BuildListing() (*listing.Listing, error) {
	return listing.NewListing(b.ListingID, b.HostID, b.NightlyRateCents, b.MaxGuests, b.Active)
}

func (b *ReservationBuilder) BuildListingSnapshot() shared.ListingSnapshot {
	return shared.ListingSnapshot{
		ID:               b.ListingID,
		HostID:           b.HostID,
		NightlyRateCents: b.NightlyRateCents,
		MaxGuests:        b.MaxGuests,
		IsActive:         b.Active,
	}
}

func (b *ReservationBuilder) BuildStay() (reservation.StayPeriod, error) {
	return reservation.NewStayPeriod(b.CheckIn, b.CheckOut)
}

func (b *ReservationBuilder) BuildFactory() *reservation.Factory {
	return reservation.NewFactory(
		clock.NewMockClock(b.Now),
		reservation.NewNightlyPriceCalculator(b.ServiceFeeCents),
	)
}

func (b *ReservationBuilder) BuildDomain() (*reservation.Reservation, error) {
	lst, err := b.BuildListing()
	if err != nil {
		return nil, err
	}
	stay, err := b.BuildStay()
	if err != nil {
		return nil, err
	}
	return b.BuildFactory().CreateReservation(lst, b.GuestID, stay, b.Guests)
}

func (b *ReservationBuilder) BuildCreateParams() commands.CreateReservationParams {
	return commands.CreateReservationParams{
		ListingID: b.ListingID,
		CheckIn:   b.CheckIn,
		CheckOut:  b.CheckOut,
		Guests:    b.Guests,
	}
}

func (b *ReservationBuilder) BuildCreateRequestDTO() reqdto.CreateReservationRequest {
	return reqdto.CreateReservationRequest{
		ListingID: b.ListingID,
		CheckIn:   b.CheckIn.Format(dateLayout),
		CheckOut:  b.CheckOut.Format(dateLayout),
		Guests:    b.Guests,
	}
}

func (b *ReservationBuilder) BuildView(status reservation.Status) *queries.ReservationView {
	nights := int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
	return &queries.ReservationView{
		ID:              uuid.New(),
		ListingID:       b.ListingID,
		ListingHostID:   b.HostID,
		GuestID:         b.GuestID,
		CheckIn:         b.CheckIn,
		CheckOut:        b.CheckOut,
		Nights:          nights,
		Guests:          b.Guests,
		Status:          status.String(),
		TotalPriceCents: b.NightlyRateCents*int64(nights) + b.ServiceFeeCents,
		CreatedAt:       b.Now,
		UpdatedAt:       b.Now,
	}
}
