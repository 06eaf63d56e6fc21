//go:build unit

package commands_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"stayfinder/internal/domain/reservation"
	"stayfinder/internal/infra/memstore"
	"stayfinder/internal/pkg/clock"
	"stayfinder/internal/pkg/config"
	"stayfinder/internal/pkg/errs"
	"stayfinder/internal/usecase/commands"
	"stayfinder/internal/usecase/shared"
	"stayfinder/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memstore.Store
	clock    *clock.MockClock
	commands commands.ReservationCommands
	builder  *builder.ReservationBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	b := builder.NewReservationBuilder()
	store := memstore.New()
	store.SeedListing(b.BuildListingSnapshot())

	clk := clock.NewMockClock(builder.BaseDay)
	cfg := config.ReservationConfig{
		ServiceFeeCents:   2900,
		HoldTTL:           30 * time.Minute,
		HoldSweepInterval: 5 * time.Minute,
	}
	factory := reservation.NewFactory(clk, reservation.NewNightlyPriceCalculator(cfg.ServiceFeeCents))

	return &fixture{
		store:    store,
		clock:    clk,
		commands: commands.NewReservationCommands(store, factory, store, clk, cfg),
		builder:  b,
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending hold", func(t *testing.T) {
		f := newFixture(t)

		view, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		assert.Equal(t, "pending", view.Status)
		assert.Equal(t, f.builder.GuestID, view.GuestID)
		assert.Equal(t, 3, view.Nights)
		assert.Equal(t, f.builder.NightlyRateCents*3+2900, view.TotalPriceCents)
	})

	t.Run("enqueues a created notification", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		jobs := f.store.Jobs()
		require.Len(t, jobs, 1)
		assert.Equal(t, "reservation_created", jobs[0].Topic)
	})

	t.Run("unknown listing", func(t *testing.T) {
		f := newFixture(t)

		params := f.builder.BuildCreateParams()
		params.ListingID = uuid.New()

		_, err := f.commands.Create(ctx, f.builder.GuestID, params, nil)
		assert.True(t, errs.Is(err, commands.ErrListingNotFound), "got %v", err)
	})

	t.Run("invalid date range", func(t *testing.T) {
		f := newFixture(t)

		params := f.builder.BuildCreateParams()
		params.CheckOut = params.CheckIn

		_, err := f.commands.Create(ctx, f.builder.GuestID, params, nil)
		assert.True(t, errs.Is(err, commands.ErrInvalidRequest), "got %v", err)
	})

	t.Run("too many guests", func(t *testing.T) {
		f := newFixture(t)

		params := f.builder.BuildCreateParams()
		params.Guests = f.builder.MaxGuests + 1

		_, err := f.commands.Create(ctx, f.builder.GuestID, params, nil)
		assert.True(t, errs.Is(err, commands.ErrInvalidRequest), "got %v", err)
	})

	t.Run("overlapping dates are rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		overlapping := f.builder.BuildCreateParams()
		overlapping.CheckIn = f.builder.CheckIn.AddDate(0, 0, 1)
		overlapping.CheckOut = f.builder.CheckOut.AddDate(0, 0, 1)

		_, err = f.commands.Create(ctx, uuid.New(), overlapping, nil)
		assert.True(t, errs.Is(err, commands.ErrDatesUnavailable), "got %v", err)
	})

	t.Run("back-to-back stays are both accepted", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		next := f.builder.BuildCreateParams()
		next.CheckIn = f.builder.CheckOut
		next.CheckOut = f.builder.CheckOut.AddDate(0, 0, 3)

		_, err = f.commands.Create(ctx, uuid.New(), next, nil)
		assert.NoError(t, err)
	})

	t.Run("cancelled dates can be rebooked", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		_, err = f.commands.Cancel(ctx, f.builder.GuestID, first.ID)
		require.NoError(t, err)

		_, err = f.commands.Create(ctx, uuid.New(), f.builder.BuildCreateParams(), nil)
		assert.NoError(t, err)
	})
}

func TestCreateIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("same key replays the original reservation", func(t *testing.T) {
		f := newFixture(t)
		key := uuid.New()

		first, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), &key)
		require.NoError(t, err)

		second, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), &key)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("completed key with different request is rejected", func(t *testing.T) {
		f := newFixture(t)
		key := uuid.New()

		first, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), &key)
		require.NoError(t, err)

		shifted := f.builder.BuildCreateParams()
		shifted.CheckIn = shifted.CheckIn.AddDate(0, 0, 10)
		shifted.CheckOut = shifted.CheckOut.AddDate(0, 0, 10)

		second, err := f.commands.Create(ctx, f.builder.GuestID, shifted, &key)
		assert.True(t, errs.Is(err, commands.ErrIdempotencyMismatch), "got %v", err)
		assert.Nil(t, second)

		// The original result is still replayable with the original request.
		replay, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), &key)
		require.NoError(t, err)
		assert.Equal(t, first.ID, replay.ID)
	})

	t.Run("processing key with different request is rejected", func(t *testing.T) {
		f := newFixture(t)
		key := uuid.New()

		// Claim the key without completing it
		f.seedProcessingKey(t, key)

		params := f.builder.BuildCreateParams()
		params.Guests = 3

		_, err := f.commands.Create(ctx, f.builder.GuestID, params, &key)
		assert.True(t, errs.Is(err, commands.ErrIdempotencyMismatch), "got %v", err)
	})
}

// seedProcessingKey claims the key with a different request hash, as if an
// earlier request were still in flight.
func (f *fixture) seedProcessingKey(t *testing.T, key uuid.UUID) {
	t.Helper()
	err := f.store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().TryInsert(ctx, key, f.builder.GuestID,
			"POST /reservations", "someotherhash", f.clock.Now().Add(24*time.Hour))
	})
	require.NoError(t, err)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("guest cancels own reservation", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		view, err := f.commands.Cancel(ctx, f.builder.GuestID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", view.Status)
	})

	t.Run("confirmed reservation can be cancelled", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		_, err = f.commands.Confirm(ctx, created.ID)
		require.NoError(t, err)

		view, err := f.commands.Cancel(ctx, f.builder.GuestID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", view.Status)
	})

	t.Run("only the booking guest may cancel", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		_, err = f.commands.Cancel(ctx, f.builder.HostID, created.ID)
		assert.True(t, errs.Is(err, commands.ErrForbidden), "got %v", err)
	})

	t.Run("cancelling twice", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		_, err = f.commands.Cancel(ctx, f.builder.GuestID, created.ID)
		require.NoError(t, err)

		_, err = f.commands.Cancel(ctx, f.builder.GuestID, created.ID)
		assert.True(t, errs.Is(err, commands.ErrAlreadyCancelled), "got %v", err)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.commands.Cancel(ctx, f.builder.GuestID, uuid.New())
		assert.True(t, errs.Is(err, commands.ErrReservationNotFound), "got %v", err)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("pending becomes confirmed", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		view, err := f.commands.Confirm(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "confirmed", view.Status)
	})

	t.Run("confirming twice", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		_, err = f.commands.Confirm(ctx, created.ID)
		require.NoError(t, err)

		_, err = f.commands.Confirm(ctx, created.ID)
		assert.True(t, errs.Is(err, commands.ErrNotPending), "got %v", err)
	})

	t.Run("cancelled reservation cannot be confirmed", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		_, err = f.commands.Cancel(ctx, f.builder.GuestID, created.ID)
		require.NoError(t, err)

		_, err = f.commands.Confirm(ctx, created.ID)
		assert.True(t, errs.Is(err, commands.ErrNotPending), "got %v", err)
	})
}

func TestExpireStaleHolds(t *testing.T) {
	ctx := context.Background()

	t.Run("old pending holds are released and rebookable", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		f.clock.Add(time.Hour)

		released, err := f.commands.ExpireStaleHolds(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), released)

		view, err := f.store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", view.Status)

		_, err = f.commands.Create(ctx, uuid.New(), f.builder.BuildCreateParams(), nil)
		assert.NoError(t, err)
	})

	t.Run("confirmed reservations are never expired", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		_, err = f.commands.Confirm(ctx, created.ID)
		require.NoError(t, err)

		f.clock.Add(time.Hour)

		released, err := f.commands.ExpireStaleHolds(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), released)
	})

	t.Run("fresh holds survive the sweep", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.commands.Create(ctx, f.builder.GuestID, f.builder.BuildCreateParams(), nil)
		require.NoError(t, err)

		f.clock.Add(10 * time.Minute)

		released, err := f.commands.ExpireStaleHolds(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), released)
	})
}

// TestConcurrentCreate races many bookings for the same dates and asserts the
// engine's core guarantee: at most one wins, everyone else gets a clean
// dates-unavailable answer.
func TestConcurrentCreate(t *testing.T) {
	const racers = 32

	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.commands.Create(ctx, uuid.New(), f.builder.BuildCreateParams(), nil)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errs.Is(err, commands.ErrDatesUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, winners)

	active, err := f.store.FindActiveForListing(ctx, f.builder.ListingID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// TestConcurrentCreateRandomRanges races partially-overlapping random stays
// and checks the invariant post-hoc: whatever subset survives, the active
// reservations for the listing are pairwise non-overlapping.
func TestConcurrentCreateRandomRanges(t *testing.T) {
	const racers = 48

	ctx := context.Background()
	f := newFixture(t)

	// Ranges are drawn up front so the goroutines only race the engine.
	rng := rand.New(rand.NewSource(1))
	type window struct{ in, out time.Time }
	windows := make([]window, racers)
	for i := range windows {
		start := 1 + rng.Intn(20)
		nights := 1 + rng.Intn(5)
		windows[i] = window{
			in:  builder.BaseDay.AddDate(0, 0, start),
			out: builder.BaseDay.AddDate(0, 0, start+nights),
		}
	}

	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := range windows {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			params := f.builder.BuildCreateParams()
			params.CheckIn = windows[i].in
			params.CheckOut = windows[i].out
			_, results[i] = f.commands.Create(ctx, uuid.New(), params, nil)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errs.Is(err, commands.ErrDatesUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	active, err := f.store.FindActiveForListing(ctx, f.builder.ListingID)
	require.NoError(t, err)
	require.Equal(t, winners, len(active))
	require.NotEmpty(t, active)

	stays := make([]reservation.StayPeriod, len(active))
	for i, a := range active {
		stay, err := reservation.NewStayPeriod(a.CheckIn, a.CheckOut)
		require.NoError(t, err)
		stays[i] = stay
	}
	for i := range stays {
		for j := i + 1; j < len(stays); j++ {
			assert.False(t, stays[i].Overlaps(stays[j]),
				"active stays %s and %s overlap", stays[i], stays[j])
		}
	}
}

// Disjoint listings must not serialize against each other; each gets its own
// winner.
func TestConcurrentCreateAcrossListings(t *testing.T) {
	const listings = 8

	ctx := context.Background()
	f := newFixture(t)

	ids := make([]uuid.UUID, listings)
	for i := range ids {
		b := builder.NewReservationBuilder()
		f.store.SeedListing(b.BuildListingSnapshot())
		ids[i] = b.ListingID
	}

	var wg sync.WaitGroup
	results := make([]error, listings)

	for i, listingID := range ids {
		wg.Add(1)
		go func(i int, listingID uuid.UUID) {
			defer wg.Done()
			params := f.builder.BuildCreateParams()
			params.ListingID = listingID
			_, results[i] = f.commands.Create(ctx, uuid.New(), params, nil)
		}(i, listingID)
	}
	wg.Wait()

	for i, err := range results {
		assert.NoError(t, err, "listing %d", i)
	}
}
