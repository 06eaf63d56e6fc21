//go:build e2e

package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateTestListing inserts a listing row and returns its id.
func CreateTestListing(t *testing.T, pool *pgxpool.Pool, hostID uuid.UUID, nightlyRateCents int64, maxGuests int) uuid.UUID {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO listings (id, host_id, nightly_rate_cents, max_guests, is_active)
		VALUES ($1, $2, $3, $4, TRUE)`,
		id, hostID, nightlyRateCents, maxGuests)
	require.NoError(t, err, "Failed to insert test listing")

	return id
}

// DeactivateListing flips a listing inactive without touching its reservations.
func DeactivateListing(t *testing.T, pool *pgxpool.Pool, listingID uuid.UUID) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `UPDATE listings SET is_active = FALSE WHERE id = $1`, listingID)
	require.NoError(t, err, "Failed to deactivate test listing")
}

// BackdatePendingReservation rewinds created_at so hold-expiry paths can be
// exercised without sleeping.
func BackdatePendingReservation(t *testing.T, pool *pgxpool.Pool, reservationID uuid.UUID, age time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx,
		`UPDATE reservations SET created_at = now() - $2::interval WHERE id = $1`,
		reservationID, age.String())
	require.NoError(t, err, "Failed to backdate test reservation")
}

// ResetDB truncates all mutable state between subtests.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `
		TRUNCATE reservations, idempotency_keys, notification_jobs, listings CASCADE`)
	return err
}
