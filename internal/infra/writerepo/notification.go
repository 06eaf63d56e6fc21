package writerepo

import (
	"context"
	"time"

	"stayfinder/internal/infra"
	"stayfinder/internal/infra/pg"

	"github.com/google/uuid"
)

// NotificationRepository writes outbox jobs in the same transaction as the
// state change they announce. Delivery is a separate concern.
type NotificationRepository struct {
	db pg.DBTX
}

func NewNotificationRepository(db pg.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	const query = `
		INSERT INTO notification_jobs (id, kind, topic, payload, run_at, status)
		VALUES ($1, $2, $3, $4, $5, 'queued')`

	if _, err := r.db.Exec(ctx, query, uuid.New(), kind, topic, payload, runAt); err != nil {
		return infra.WrapRepoErr("failed to enqueue notification job", err)
	}
	return nil
}
