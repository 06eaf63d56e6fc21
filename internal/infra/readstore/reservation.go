package readstore

import (
	"context"

	"stayfinder/internal/infra"
	"stayfinder/internal/infra/pg"
	"stayfinder/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationReadStore struct {
	db pg.DBTX
}

func NewReservationReadStore(db pg.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: db}
}

const reservationViewColumns = `
	r.id, r.listing_id, l.host_id, r.guest_id,
	r.check_in, r.check_out, r.guests, r.status,
	r.total_price_cents, r.created_at, r.updated_at`

func (s *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	query := `
		SELECT ` + reservationViewColumns + `
		FROM reservations r
		JOIN listings l ON l.id = r.listing_id
		WHERE r.id = $1`

	view := &queries.ReservationView{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&view.ID, &view.ListingID, &view.ListingHostID, &view.GuestID,
		&view.CheckIn, &view.CheckOut, &view.Guests, &view.Status,
		&view.TotalPriceCents, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if pg.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}

	view.Nights = int(view.CheckOut.Sub(view.CheckIn).Hours() / 24)
	return view, nil
}

func (s *ReservationReadStore) ListByGuest(ctx context.Context, guestID uuid.UUID, after *queries.Keyset, limit int32) ([]*queries.ReservationListItem, error) {
	const firstPage = `
		SELECT id, listing_id, check_in, check_out, guests, status, total_price_cents, created_at
		FROM reservations
		WHERE guest_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	const keysetPage = `
		SELECT id, listing_id, check_in, check_out, guests, status, total_price_cents, created_at
		FROM reservations
		WHERE guest_id = $1 AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	if after == nil {
		return s.scanListItems(s.db.Query(ctx, firstPage, guestID, limit))
	}
	return s.scanListItems(s.db.Query(ctx, keysetPage, guestID, after.CreatedAt, after.ID, limit))
}

func (s *ReservationReadStore) ListByHost(ctx context.Context, hostID uuid.UUID, after *queries.Keyset, limit int32) ([]*queries.ReservationListItem, error) {
	const firstPage = `
		SELECT r.id, r.listing_id, r.check_in, r.check_out, r.guests, r.status, r.total_price_cents, r.created_at
		FROM reservations r
		JOIN listings l ON l.id = r.listing_id
		WHERE l.host_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2`

	const keysetPage = `
		SELECT r.id, r.listing_id, r.check_in, r.check_out, r.guests, r.status, r.total_price_cents, r.created_at
		FROM reservations r
		JOIN listings l ON l.id = r.listing_id
		WHERE l.host_id = $1 AND (r.created_at, r.id) < ($2, $3)
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $4`

	if after == nil {
		return s.scanListItems(s.db.Query(ctx, firstPage, hostID, limit))
	}
	return s.scanListItems(s.db.Query(ctx, keysetPage, hostID, after.CreatedAt, after.ID, limit))
}

// FindActiveForListing backs the advisory availability check. It takes no
// lock; authoritative conflict decisions happen only in InsertIfAvailable.
func (s *ReservationReadStore) FindActiveForListing(ctx context.Context, listingID uuid.UUID) ([]*queries.ActiveStay, error) {
	const query = `
		SELECT id, check_in, check_out
		FROM reservations
		WHERE listing_id = $1 AND status IN ('pending', 'confirmed')
		ORDER BY check_in`

	rows, err := s.db.Query(ctx, query, listingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find active reservations", err)
	}
	defer rows.Close()

	var result []*queries.ActiveStay
	for rows.Next() {
		stay := &queries.ActiveStay{}
		if err := rows.Scan(&stay.ID, &stay.CheckIn, &stay.CheckOut); err != nil {
			return nil, infra.WrapRepoErr("failed to scan active reservation", err)
		}
		result = append(result, stay)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read active reservations", err)
	}

	return result, nil
}

func (s *ReservationReadStore) scanListItems(rows pgx.Rows, err error) ([]*queries.ReservationListItem, error) {
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	var result []*queries.ReservationListItem
	for rows.Next() {
		item := &queries.ReservationListItem{}
		if err := rows.Scan(
			&item.ID, &item.ListingID, &item.CheckIn, &item.CheckOut,
			&item.Guests, &item.Status, &item.TotalPriceCents, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation list item", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservation list", err)
	}

	return result, nil
}
