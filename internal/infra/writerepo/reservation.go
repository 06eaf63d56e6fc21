package writerepo

import (
	"context"
	"time"

	"stayfinder/internal/domain/reservation"
	"stayfinder/internal/infra"
	"stayfinder/internal/infra/pg"
	"stayfinder/internal/usecase/shared"

	"github.com/google/uuid"
)

// ReservationRepository is the write side of the reservation store. It is
// always constructed against an open transaction by the unit of work.
type ReservationRepository struct {
	db pg.DBTX
}

func NewReservationRepository(db pg.DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// InsertIfAvailable serializes conflicting bookings on the listing with a
// transaction-scoped advisory lock, re-reads the active set under it, and
// inserts only when nothing overlaps. The schema's exclusion constraint
// turns any write that slips past the lock into the same conflict error at
// commit, so the non-overlap invariant holds even across deployments that
// bypass the advisory lock.
func (r *ReservationRepository) InsertIfAvailable(ctx context.Context, res *reservation.Reservation) error {
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := r.db.Exec(ctx, lockQuery, res.ListingID().String()); err != nil {
		return infra.WrapRepoErr("failed to acquire listing lock", err)
	}

	const probeQuery = `
		SELECT id FROM reservations
		WHERE listing_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND check_in < $2
		  AND check_out > $3`

	rows, err := r.db.Query(ctx, probeQuery, res.ListingID(), res.Stay().CheckOut(), res.Stay().CheckIn())
	if err != nil {
		return infra.WrapRepoErr("failed to probe active reservations", err)
	}
	defer rows.Close()

	var conflicting []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return infra.WrapRepoErr("failed to scan conflicting reservation", err)
		}
		conflicting = append(conflicting, id)
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to read conflicting reservations", err)
	}

	if len(conflicting) > 0 {
		return infra.WrapRepoErr("dates conflict with active reservations",
			&shared.DatesConflictError{ConflictingIDs: conflicting}, infra.KindConflict)
	}

	const insertQuery = `
		INSERT INTO reservations
			(id, listing_id, guest_id, check_in, check_out, guests, total_price_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, insertQuery,
		res.ID(), res.ListingID(), res.GuestID(),
		res.Stay().CheckIn(), res.Stay().CheckOut(),
		res.Guests(), res.Price().Cents(), res.Status().String(),
		res.CreatedAt(), res.UpdatedAt(),
	)
	if err != nil {
		if pg.IsExclusionViolation(err) {
			return infra.WrapRepoErr("overlap constraint rejected reservation", err, infra.KindConflict)
		}
		return infra.WrapRepoErr("failed to insert reservation", err)
	}

	return nil
}

func (r *ReservationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to reservation.Status, now time.Time) error {
	if !from.CanTransitionTo(to) {
		return infra.WrapRepoErr("illegal status transition "+from.String()+" -> "+to.String(),
			reservation.ErrInvalidTransition, infra.KindStaleState)
	}

	const query = `
		UPDATE reservations
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, id, from.String(), to.String(), now)
	if err != nil {
		return infra.WrapRepoErr("failed to transition reservation status", err)
	}

	if tag.RowsAffected() == 0 {
		var current string
		err := r.db.QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1`, id).Scan(&current)
		if err != nil {
			if pg.IsNoRows(err) {
				return infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
			}
			return infra.WrapRepoErr("failed to read reservation status", err)
		}
		return infra.WrapRepoErr("reservation status is "+current+", expected "+from.String(),
			nil, infra.KindStaleState)
	}

	return nil
}

func (r *ReservationRepository) ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int64, error) {
	const query = `
		UPDATE reservations
		SET status = 'cancelled', updated_at = $2
		WHERE status = 'pending' AND created_at < $1`

	tag, err := r.db.Exec(ctx, query, cutoff, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire stale holds", err)
	}

	return tag.RowsAffected(), nil
}
