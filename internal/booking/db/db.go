package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"cinema-ticketing/internal/booking"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/seats"
)

type DB struct {
	Bun *bun.DB
}

// ReserveAndBook is the reservation transaction: read the showtime, gate
// on its start time, check the requested seats against the reserved list,
// then write the union and the new booking as one unit. Concurrent calls
// against the same showtime are serialized by the row lock, so at most one
// of two overlapping requests can commit.
//
// On success b is updated in place with the authoritative total and seat
// type. On any failure nothing is written.
func (d *DB) ReserveAndBook(ctx context.Context, b *models.Booking) error {
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var show models.Showtime
		q := tx.NewSelect().
			Model(&show).
			Where("showtime_id = ?", b.ShowtimeID)
		// Row-level lock on Postgres; the sqlite test harness serializes
		// writers on its own.
		if d.Bun.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return booking.ErrShowtimeNotFound
			}
			return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
		}

		started, err := show.HasStarted(time.Now())
		if err != nil {
			return err
		}
		if started {
			return booking.ErrShowtimeExpired
		}

		reserved := make(map[string]bool, len(show.SeatsReserved))
		for _, s := range show.SeatsReserved {
			reserved[s] = true
		}
		var conflicting []string
		for _, s := range b.Seats {
			if reserved[s] {
				conflicting = append(conflicting, s)
			}
		}
		if len(conflicting) > 0 {
			return &booking.SeatConflictError{Seats: conflicting}
		}

		total, err := seats.ComputeTotal(show.PriceMap, b.Seats)
		if err != nil {
			return err
		}
		seatType, err := seats.DeriveCategory(b.Seats)
		if err != nil {
			return err
		}
		b.Total = total
		b.SeatType = seatType
		b.MovieID = show.MovieID

		show.SeatsReserved = unionSeats(show.SeatsReserved, b.Seats)
		if _, err := tx.NewUpdate().
			Model(&show).
			Column("seats_reserved").
			Where("showtime_id = ?", show.ShowtimeID).
			Exec(ctx); err != nil {
			return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
		}

		if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
			return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
		}
		return nil
	})
	return err
}

// RedeemBooking flips a booking to redeemed inside a transaction. A second
// call finds the terminal status and returns ErrAlreadyRedeemed along with
// the untouched record.
func (d *DB) RedeemBooking(ctx context.Context, bookingID string, at time.Time) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().
			Model(&b).
			Where("booking_id = ?", bookingID)
		if d.Bun.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return booking.ErrBookingNotFound
			}
			return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
		}

		if b.Status == models.BookingStatusRedeemed {
			return booking.ErrAlreadyRedeemed
		}

		b.Status = models.BookingStatusRedeemed
		b.RedeemedAt = at
		if _, err := tx.NewUpdate().
			Model(&b).
			Column("status", "redeemed_at").
			Where("booking_id = ?", bookingID).
			Exec(ctx); err != nil {
			return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, booking.ErrAlreadyRedeemed) {
			return &b, err
		}
		return nil, err
	}
	return &b, nil
}

func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.NewSelect().
		Model(&b).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
	}
	return &b, nil
}

func (d *DB) GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
	}
	return bookings, nil
}

func (d *DB) GetShowtimeByID(ctx context.Context, id string) (*models.Showtime, error) {
	var show models.Showtime
	err := d.Bun.NewSelect().
		Model(&show).
		Where("showtime_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrShowtimeNotFound
		}
		return nil, fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
	}
	return &show, nil
}

// unionSeats merges two seat lists without duplicates, sorted for
// deterministic storage.
func unionSeats(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
