package writerepo

import (
	"context"
	"time"

	"stayfinder/internal/infra"
	"stayfinder/internal/infra/pg"

	"github.com/google/uuid"
)

type IdempotencyRepository struct {
	db pg.DBTX
}

func NewIdempotencyRepository(db pg.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// TryInsert claims the key; a concurrent claim is not an error, the caller
// inspects the stored record afterwards.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, principalID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) error {
	const query = `
		INSERT INTO idempotency_keys (key, principal_id, endpoint, request_hash, status, expires_at)
		VALUES ($1, $2, $3, $4, 'processing', $5)
		ON CONFLICT (key, principal_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, key, principalID, endpoint, requestHash, expiresAt); err != nil {
		return infra.WrapRepoErr("failed to claim idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key, principalID uuid.UUID, resultReservationID uuid.UUID) error {
	const query = `
		UPDATE idempotency_keys
		SET status = 'completed', result_reservation_id = $3
		WHERE key = $1 AND principal_id = $2`

	tag, err := r.db.Exec(ctx, query, key, principalID, resultReservationID)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return nil
}
