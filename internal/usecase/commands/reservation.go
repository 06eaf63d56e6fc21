package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"stayfinder/internal/domain/listing"
	"stayfinder/internal/domain/reservation"
	"stayfinder/internal/infra"
	"stayfinder/internal/pkg/clock"
	"stayfinder/internal/pkg/config"
	"stayfinder/internal/pkg/errs"
	"stayfinder/internal/usecase/queries"
	"stayfinder/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrListingNotFound     = errs.New("listing not found")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrInvalidRequest      = errs.New("invalid reservation request")
	ErrDatesUnavailable    = errs.New("dates unavailable")
	ErrForbidden           = errs.New("not authorized to modify this reservation")
	ErrAlreadyCancelled    = errs.New("reservation is already cancelled")
	ErrNotPending          = errs.New("reservation is not pending")
	ErrStaleState          = errs.New("reservation changed concurrently")
	ErrIdempotencyMismatch = errs.New("idempotency key reused with different request")
	ErrIdempotencyFailed   = errs.New("idempotency check failed")
	ErrStorageFailure      = errs.New("storage operation failed")
)

const createEndpoint = "POST /reservations"

type CreateReservationParams struct {
	ListingID uuid.UUID
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    int
}

type ReservationCommands interface {
	// Create validates the request, prices the stay, and attempts the
	// atomic insert-if-available. Exactly one durable reservation exists on
	// success; none on any failure path. A lost race surfaces as
	// ErrDatesUnavailable, which callers must treat as a normal outcome.
	Create(ctx context.Context, guestID uuid.UUID, p CreateReservationParams, idempotencyKey *uuid.UUID) (*queries.ReservationView, error)
	// Cancel may only be invoked by the reservation's guest. Cancellation
	// is terminal and releases the dates for rebooking.
	Cancel(ctx context.Context, actor uuid.UUID, id uuid.UUID) (*queries.ReservationView, error)
	// Confirm is the post-payment callback: pending → confirmed.
	Confirm(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error)
	// ExpireStaleHolds cancels pending holds older than the hold TTL.
	ExpireStaleHolds(ctx context.Context) (int64, error)
}

type reservationCommandsImpl struct {
	uow     shared.UnitOfWork
	factory *reservation.Factory
	views   queries.ReservationReadStore
	clock   clock.Clock
	cfg     config.ReservationConfig
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	factory *reservation.Factory,
	views queries.ReservationReadStore,
	clk clock.Clock,
	cfg config.ReservationConfig,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:     uow,
		factory: factory,
		views:   views,
		clock:   clk,
		cfg:     cfg,
	}
}

func (c *reservationCommandsImpl) Create(
	ctx context.Context,
	guestID uuid.UUID,
	p CreateReservationParams,
	idempotencyKey *uuid.UUID,
) (*queries.ReservationView, error) {
	requestHash := calculateRequestHash(p)

	if idempotencyKey != nil {
		replayed, err := c.handleIdempotency(ctx, *idempotencyKey, guestID, requestHash)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			return replayed, nil
		}
	}

	lst, err := c.loadListing(ctx, p.ListingID)
	if err != nil {
		return nil, err
	}

	stay, err := reservation.NewStayPeriod(p.CheckIn, p.CheckOut)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidRequest)
	}

	res, err := c.factory.CreateReservation(lst, guestID, stay, p.Guests)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidRequest)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if insErr := tx.Reservations().InsertIfAvailable(ctx, res); insErr != nil {
			return insErr
		}

		if jobErr := c.enqueueJob(ctx, tx, "reservation_created", res.ID()); jobErr != nil {
			return jobErr
		}

		if idempotencyKey != nil {
			if idemErr := tx.Idempotency().MarkCompleted(ctx, *idempotencyKey, guestID, res.ID()); idemErr != nil {
				return idemErr
			}
		}
		return nil
	})
	if err != nil {
		var conflict *shared.DatesConflictError
		if errors.As(err, &conflict) {
			slog.Info("reservation lost dates race",
				"listing_id", p.ListingID, "stay", stay.String(),
				"conflicts", len(conflict.ConflictingIDs))
			return nil, errs.Mark(err, ErrDatesUnavailable)
		}
		if infra.IsKind(err, infra.KindConflict) {
			return nil, errs.Mark(err, ErrDatesUnavailable)
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	return c.readBack(ctx, res.ID())
}

func (c *reservationCommandsImpl) Cancel(ctx context.Context, actor uuid.UUID, id uuid.UUID) (*queries.ReservationView, error) {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().ReservationByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrStorageFailure)
		}

		if snap.GuestID != actor {
			return ErrForbidden
		}

		from := reservation.Status(snap.Status)
		if from == reservation.StatusCancelled {
			return ErrAlreadyCancelled
		}

		if err := tx.Reservations().TransitionStatus(ctx, id, from, reservation.StatusCancelled, c.clock.Now()); err != nil {
			if infra.IsKind(err, infra.KindStaleState) {
				return errs.Mark(err, ErrStaleState)
			}
			return errs.Mark(err, ErrStorageFailure)
		}

		return c.enqueueJob(ctx, tx, "reservation_cancelled", id)
	})
	if err != nil {
		return nil, err
	}

	return c.readBack(ctx, id)
}

func (c *reservationCommandsImpl) Confirm(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().ReservationByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrStorageFailure)
		}

		if reservation.Status(snap.Status) != reservation.StatusPending {
			return ErrNotPending
		}

		if err := tx.Reservations().TransitionStatus(ctx, id, reservation.StatusPending, reservation.StatusConfirmed, c.clock.Now()); err != nil {
			if infra.IsKind(err, infra.KindStaleState) {
				return errs.Mark(err, ErrNotPending)
			}
			return errs.Mark(err, ErrStorageFailure)
		}

		return c.enqueueJob(ctx, tx, "reservation_confirmed", id)
	})
	if err != nil {
		return nil, err
	}

	return c.readBack(ctx, id)
}

func (c *reservationCommandsImpl) ExpireStaleHolds(ctx context.Context) (int64, error) {
	now := c.clock.Now()
	cutoff := now.Add(-c.cfg.HoldTTL)

	var released int64
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		released, err = tx.Reservations().ExpirePendingBefore(ctx, cutoff, now)
		return err
	})
	if err != nil {
		return 0, errs.Mark(err, ErrStorageFailure)
	}

	if released > 0 {
		slog.Info("released stale holds", "count", released, "cutoff", cutoff)
	}
	return released, nil
}

// handleIdempotency claims the key and replays the stored result when a
// completed record already exists. A non-nil view means replay; (nil, nil)
// means the caller owns the key and should proceed.
func (c *reservationCommandsImpl) handleIdempotency(
	ctx context.Context,
	key, guestID uuid.UUID,
	requestHash string,
) (*queries.ReservationView, error) {
	expiresAt := c.clock.Now().Add(24 * time.Hour)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().TryInsert(ctx, key, guestID, createEndpoint, requestHash, expiresAt)
	})
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyFailed)
	}

	record, err := c.uow.Reads().IdempotencyByKey(ctx, key, guestID)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyFailed)
	}

	switch record.Status {
	case shared.IdempotencyStatusCompleted:
		if record.RequestHash != requestHash {
			return nil, ErrIdempotencyMismatch
		}
		if record.ResultReservationID == nil {
			return nil, errs.New("completed idempotency record missing result reservation ID")
		}
		return c.readBack(ctx, *record.ResultReservationID)

	case shared.IdempotencyStatusProcessing:
		if record.RequestHash != requestHash {
			return nil, ErrIdempotencyMismatch
		}
		return nil, nil

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func (c *reservationCommandsImpl) loadListing(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	snap, err := c.uow.Reads().ListingByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	lst, err := listing.NewListing(snap.ID, snap.HostID, snap.NightlyRateCents, snap.MaxGuests, snap.IsActive)
	if err != nil {
		return nil, errs.Wrap(err, "listing snapshot failed validation")
	}
	return lst, nil
}

func (c *reservationCommandsImpl) enqueueJob(ctx context.Context, tx shared.Tx, topic string, reservationID uuid.UUID) error {
	payload, err := json.Marshal(map[string]any{
		"reservation_id": reservationID,
		"type":           topic,
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, "email", topic, payload, c.clock.Now())
}

func (c *reservationCommandsImpl) readBack(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	view, err := c.views.FindByID(ctx, id)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	return view, nil
}

func calculateRequestHash(p CreateReservationParams) string {
	data, _ := json.Marshal(p)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
