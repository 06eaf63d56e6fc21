package readstore

import (
	"context"

	"stayfinder/internal/infra"
	"stayfinder/internal/infra/pg"
	"stayfinder/internal/usecase/shared"

	"github.com/google/uuid"
)

// CommandReads serves the validation-time snapshots the command layer needs
// before and inside a transaction. Bound to a pool it reads committed state;
// bound to a pgx.Tx it reads that transaction's view.
type CommandReads struct {
	db pg.DBTX
}

func NewCommandReads(db pg.DBTX) *CommandReads {
	return &CommandReads{db: db}
}

func (r *CommandReads) ListingByID(ctx context.Context, id uuid.UUID) (*shared.ListingSnapshot, error) {
	const query = `
		SELECT id, host_id, nightly_rate_cents, max_guests, is_active
		FROM listings
		WHERE id = $1`

	snap := &shared.ListingSnapshot{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&snap.ID, &snap.HostID, &snap.NightlyRateCents, &snap.MaxGuests, &snap.IsActive,
	)
	if err != nil {
		if pg.IsNoRows(err) {
			return nil, infra.WrapRepoErr("listing not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find listing by ID", err)
	}
	return snap, nil
}

func (r *CommandReads) ReservationByID(ctx context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	const query = `
		SELECT id, listing_id, guest_id, status, check_in, check_out, created_at
		FROM reservations
		WHERE id = $1`

	snap := &shared.ReservationSnapshot{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&snap.ID, &snap.ListingID, &snap.GuestID, &snap.Status,
		&snap.CheckIn, &snap.CheckOut, &snap.CreatedAt,
	)
	if err != nil {
		if pg.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return snap, nil
}

func (r *CommandReads) IdempotencyByKey(ctx context.Context, key, principalID uuid.UUID) (*shared.IdempotencyRecord, error) {
	const query = `
		SELECT key, principal_id, status, request_hash, result_reservation_id, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND principal_id = $2`

	rec := &shared.IdempotencyRecord{}
	err := r.db.QueryRow(ctx, query, key, principalID).Scan(
		&rec.Key, &rec.PrincipalID, &rec.Status, &rec.RequestHash,
		&rec.ResultReservationID, &rec.ExpiresAt,
	)
	if err != nil {
		if pg.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find idempotency key", err)
	}
	return rec, nil
}
