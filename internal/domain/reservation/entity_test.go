//go:build unit

package reservation_test

import (
	"testing"

	"stayfinder/internal/domain/reservation"
	"stayfinder/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreateReservation(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		actual, err := b.BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, b.ListingID, actual.ListingID())
		assert.Equal(t, b.GuestID, actual.GuestID())
		assert.Equal(t, reservation.StatusPending, actual.Status())
		assert.Equal(t, actual.CreatedAt(), actual.UpdatedAt())
	})

	t.Run("price is nightly rate times nights plus service fee", func(t *testing.T) {
		// 100/night for 3 nights with a 29 flat fee = 329
		actual, err := builder.NewReservationBuilder().
			WithNightlyRateCents(100).
			WithServiceFeeCents(29).
			WithStayDays(7, 10).
			BuildDomain()
		require.NoError(t, err)

		assert.Equal(t, int64(329), actual.Price().Cents())
	})

	t.Run("price is fixed at creation", func(t *testing.T) {
		one, err := builder.NewReservationBuilder().
			WithNightlyRateCents(5000).
			WithStayDays(1, 2).
			BuildDomain()
		require.NoError(t, err)

		assert.Equal(t, int64(5000+2900), one.Price().Cents())
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*builder.ReservationBuilder)
			errIs  error
		}{
			{
				name:   "inactive listing",
				mutate: func(b *builder.ReservationBuilder) { b.Inactive() },
				errIs:  reservation.ErrListingInactive,
			},
			{
				name:   "zero guests",
				mutate: func(b *builder.ReservationBuilder) { b.WithGuests(0) },
				errIs:  reservation.ErrNoGuests,
			},
			{
				name:   "too many guests",
				mutate: func(b *builder.ReservationBuilder) { b.WithMaxGuests(2).WithGuests(3) },
				errIs:  reservation.ErrTooManyGuests,
			},
			{
				name:   "check-in in the past",
				mutate: func(b *builder.ReservationBuilder) { b.WithStayDays(-2, 1) },
				errIs:  reservation.ErrCheckInPast,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				b := builder.NewReservationBuilder()
				tc.mutate(b)

				_, err := b.BuildDomain()
				assert.ErrorIs(t, err, tc.errIs)
			})
		}
	})

	t.Run("check-in today is allowed", func(t *testing.T) {
		_, err := builder.NewReservationBuilder().WithStayDays(0, 2).BuildDomain()
		assert.NoError(t, err)
	})
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to reservation.Status
		allowed  bool
	}{
		{reservation.StatusPending, reservation.StatusConfirmed, true},
		{reservation.StatusPending, reservation.StatusCancelled, true},
		{reservation.StatusConfirmed, reservation.StatusCancelled, true},
		{reservation.StatusConfirmed, reservation.StatusPending, false},
		{reservation.StatusCancelled, reservation.StatusPending, false},
		{reservation.StatusCancelled, reservation.StatusConfirmed, false},
		{reservation.StatusPending, reservation.StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.from.String()+" to "+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestReservationConflictsWith(t *testing.T) {
	listingID := uuid.New()

	build := func(startOffset, endOffset int) *reservation.Reservation {
		res, err := builder.NewReservationBuilder().
			WithListingID(listingID).
			WithStayDays(startOffset, endOffset).
			BuildDomain()
		require.NoError(t, err)
		return res
	}

	t.Run("overlapping stays on the same listing conflict", func(t *testing.T) {
		a := build(1, 4)
		b := build(3, 6)
		assert.True(t, a.ConflictsWith(b))
		assert.True(t, b.ConflictsWith(a))
	})

	t.Run("back-to-back stays do not conflict", func(t *testing.T) {
		a := build(1, 4)
		b := build(4, 7)
		assert.False(t, a.ConflictsWith(b))
	})

	t.Run("different listings never conflict", func(t *testing.T) {
		a := build(1, 4)
		other, err := builder.NewReservationBuilder().WithStayDays(1, 4).BuildDomain()
		require.NoError(t, err)
		assert.False(t, a.ConflictsWith(other))
	})
}
