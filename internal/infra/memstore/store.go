// Package memstore is an in-memory implementation of the unit-of-work and
// read-store contracts, used by unit tests that exercise command semantics
// and the non-overlap guarantee without a database. Per-listing shard locks
// give it the same serialization point the Postgres advisory lock provides.
package memstore

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"stayfinder/internal/domain/reservation"
	"stayfinder/internal/infra"
	"stayfinder/internal/pkg/errs"
	"stayfinder/internal/usecase/queries"
	"stayfinder/internal/usecase/shared"

	"github.com/google/uuid"
)

const listingShards = 64

type reservationRow struct {
	id              uuid.UUID
	listingID       uuid.UUID
	guestID         uuid.UUID
	checkIn         time.Time
	checkOut        time.Time
	guests          int
	status          reservation.Status
	totalPriceCents int64
	createdAt       time.Time
	updatedAt       time.Time
}

type idempotencyRow struct {
	key                 uuid.UUID
	principalID         uuid.UUID
	status              string
	requestHash         string
	resultReservationID *uuid.UUID
	expiresAt           time.Time
}

// NotificationJob records an enqueued outbox entry for test assertions.
type NotificationJob struct {
	ID      uuid.UUID
	Kind    string
	Topic   string
	Payload []byte
	RunAt   time.Time
}

type Store struct {
	mu           sync.RWMutex
	listings     map[uuid.UUID]shared.ListingSnapshot
	reservations map[uuid.UUID]*reservationRow
	idempotency  map[[2]uuid.UUID]*idempotencyRow
	jobs         []NotificationJob

	shards [listingShards]sync.Mutex
}

func New() *Store {
	return &Store{
		listings:     make(map[uuid.UUID]shared.ListingSnapshot),
		reservations: make(map[uuid.UUID]*reservationRow),
		idempotency:  make(map[[2]uuid.UUID]*idempotencyRow),
	}
}

func (s *Store) SeedListing(snap shared.ListingSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[snap.ID] = snap
}

func (s *Store) Jobs() []NotificationJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NotificationJob, len(s.jobs))
	copy(out, s.jobs)
	return out
}

func (s *Store) shardFor(listingID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(listingID[:])
	return &s.shards[h.Sum32()%listingShards]
}

// UnitOfWork

// Within applies fn's writes directly; there is no rollback. Tests that need
// atomicity semantics exercise them through the Postgres implementation.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &memTx{store: s})
}

func (s *Store) Reads() shared.CommandReads {
	return &commandReads{store: s}
}

type memTx struct {
	store *Store
}

func (t *memTx) Reservations() shared.ReservationRepository { return &reservationRepo{store: t.store} }
func (t *memTx) Idempotency() shared.IdempotencyRepository { return &idempotencyRepo{store: t.store} }
func (t *memTx) Notifications() shared.NotificationRepository {
	return &notificationRepo{store: t.store}
}
func (t *memTx) Reads() shared.CommandReads { return &commandReads{store: t.store} }

// Write side

type reservationRepo struct {
	store *Store
}

func (r *reservationRepo) InsertIfAvailable(_ context.Context, res *reservation.Reservation) error {
	shard := r.store.shardFor(res.ListingID())
	shard.Lock()
	defer shard.Unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var conflicting []uuid.UUID
	for _, row := range r.store.reservations {
		if row.listingID != res.ListingID() || !row.status.IsActive() {
			continue
		}
		if row.checkIn.Before(res.Stay().CheckOut()) && res.Stay().CheckIn().Before(row.checkOut) {
			conflicting = append(conflicting, row.id)
		}
	}
	if len(conflicting) > 0 {
		return infra.WrapRepoErr("dates conflict with active reservations",
			&shared.DatesConflictError{ConflictingIDs: conflicting}, infra.KindConflict)
	}

	r.store.reservations[res.ID()] = &reservationRow{
		id:              res.ID(),
		listingID:       res.ListingID(),
		guestID:         res.GuestID(),
		checkIn:         res.Stay().CheckIn(),
		checkOut:        res.Stay().CheckOut(),
		guests:          res.Guests(),
		status:          res.Status(),
		totalPriceCents: res.Price().Cents(),
		createdAt:       res.CreatedAt(),
		updatedAt:       res.UpdatedAt(),
	}
	return nil
}

func (r *reservationRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to reservation.Status, now time.Time) error {
	if !from.CanTransitionTo(to) {
		return infra.WrapRepoErr("invalid status transition", reservation.ErrInvalidTransition, infra.KindStaleState)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.reservations[id]
	if !ok {
		return infra.WrapRepoErr("reservation not found", errs.New("no rows"), infra.KindNotFound)
	}
	if row.status != from {
		return infra.WrapRepoErr("reservation status changed concurrently", errs.New("stale state"), infra.KindStaleState)
	}

	row.status = to
	row.updatedAt = now
	return nil
}

func (r *reservationRepo) ExpirePendingBefore(_ context.Context, cutoff, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var released int64
	for _, row := range r.store.reservations {
		if row.status == reservation.StatusPending && row.createdAt.Before(cutoff) {
			row.status = reservation.StatusCancelled
			row.updatedAt = now
			released++
		}
	}
	return released, nil
}

type idempotencyRepo struct {
	store *Store
}

func (r *idempotencyRepo) TryInsert(_ context.Context, key, principalID uuid.UUID, _, requestHash string, expiresAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	k := [2]uuid.UUID{key, principalID}
	if _, exists := r.store.idempotency[k]; exists {
		return nil
	}
	r.store.idempotency[k] = &idempotencyRow{
		key:         key,
		principalID: principalID,
		status:      shared.IdempotencyStatusProcessing,
		requestHash: requestHash,
		expiresAt:   expiresAt,
	}
	return nil
}

func (r *idempotencyRepo) MarkCompleted(_ context.Context, key, principalID uuid.UUID, resultReservationID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.idempotency[[2]uuid.UUID{key, principalID}]
	if !ok {
		return infra.WrapRepoErr("idempotency key not found", errs.New("no rows"), infra.KindNotFound)
	}
	row.status = shared.IdempotencyStatusCompleted
	row.resultReservationID = &resultReservationID
	return nil
}

type notificationRepo struct {
	store *Store
}

func (r *notificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.jobs = append(r.store.jobs, NotificationJob{
		ID:      uuid.New(),
		Kind:    kind,
		Topic:   topic,
		Payload: payload,
		RunAt:   runAt,
	})
	return nil
}

// Command reads

type commandReads struct {
	store *Store
}

func (r *commandReads) ListingByID(_ context.Context, id uuid.UUID) (*shared.ListingSnapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	snap, ok := r.store.listings[id]
	if !ok {
		return nil, infra.WrapRepoErr("listing not found", errs.New("no rows"), infra.KindNotFound)
	}
	out := snap
	return &out, nil
}

func (r *commandReads) ReservationByID(_ context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", errs.New("no rows"), infra.KindNotFound)
	}
	return &shared.ReservationSnapshot{
		ID:        row.id,
		ListingID: row.listingID,
		GuestID:   row.guestID,
		Status:    string(row.status),
		CheckIn:   row.checkIn,
		CheckOut:  row.checkOut,
		CreatedAt: row.createdAt,
	}, nil
}

func (r *commandReads) IdempotencyByKey(_ context.Context, key, principalID uuid.UUID) (*shared.IdempotencyRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.idempotency[[2]uuid.UUID{key, principalID}]
	if !ok {
		return nil, infra.WrapRepoErr("idempotency key not found", errs.New("no rows"), infra.KindNotFound)
	}
	return &shared.IdempotencyRecord{
		Key:                 row.key,
		PrincipalID:         row.principalID,
		Status:              row.status,
		RequestHash:         row.requestHash,
		ResultReservationID: row.resultReservationID,
		ExpiresAt:           row.expiresAt,
	}, nil
}

// Read store

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", errs.New("no rows"), infra.KindNotFound)
	}

	hostID := uuid.Nil
	if lst, ok := s.listings[row.listingID]; ok {
		hostID = lst.HostID
	}

	return &queries.ReservationView{
		ID:              row.id,
		ListingID:       row.listingID,
		ListingHostID:   hostID,
		GuestID:         row.guestID,
		CheckIn:         row.checkIn,
		CheckOut:        row.checkOut,
		Nights:          int(row.checkOut.Sub(row.checkIn).Hours() / 24),
		Guests:          row.guests,
		Status:          string(row.status),
		TotalPriceCents: row.totalPriceCents,
		CreatedAt:       row.createdAt,
		UpdatedAt:       row.updatedAt,
	}, nil
}

func (s *Store) ListByGuest(_ context.Context, guestID uuid.UUID, after *queries.Keyset, limit int32) ([]*queries.ReservationListItem, error) {
	return s.list(func(row *reservationRow) bool { return row.guestID == guestID }, after, limit), nil
}

func (s *Store) ListByHost(_ context.Context, hostID uuid.UUID, after *queries.Keyset, limit int32) ([]*queries.ReservationListItem, error) {
	return s.list(func(row *reservationRow) bool {
		lst, ok := s.listings[row.listingID]
		return ok && lst.HostID == hostID
	}, after, limit), nil
}

func (s *Store) FindActiveForListing(_ context.Context, listingID uuid.UUID) ([]*queries.ActiveStay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*queries.ActiveStay
	for _, row := range s.reservations {
		if row.listingID == listingID && row.status.IsActive() {
			out = append(out, &queries.ActiveStay{ID: row.id, CheckIn: row.checkIn, CheckOut: row.checkOut})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (s *Store) list(match func(*reservationRow) bool, after *queries.Keyset, limit int32) []*queries.ReservationListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*reservationRow
	for _, row := range s.reservations {
		if match(row) {
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].createdAt.Equal(rows[j].createdAt) {
			return rows[i].createdAt.After(rows[j].createdAt)
		}
		return rows[i].id.String() > rows[j].id.String()
	})

	var out []*queries.ReservationListItem
	for _, row := range rows {
		if after != nil {
			if row.createdAt.After(after.CreatedAt) {
				continue
			}
			if row.createdAt.Equal(after.CreatedAt) && row.id.String() >= after.ID.String() {
				continue
			}
		}
		out = append(out, &queries.ReservationListItem{
			ID:              row.id,
			ListingID:       row.listingID,
			CheckIn:         row.checkIn,
			CheckOut:        row.checkOut,
			Guests:          row.guests,
			Status:          string(row.status),
			TotalPriceCents: row.totalPriceCents,
			CreatedAt:       row.createdAt,
		})
		if int32(len(out)) == limit {
			break
		}
	}
	return out
}
