package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"cinema-ticketing/internal/booking"
	"cinema-ticketing/internal/booking/db"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/seats"
)

func setupTestDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Movie)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Showtime)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Booking)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func testPrices() seats.PriceMap {
	return seats.PriceMap{
		seats.CategoryClassic:  800,
		seats.CategoryPrime:    1200,
		seats.CategorySuperior: 1800,
	}
}

func insertShowtime(t *testing.T, d *db.DB, show models.Showtime) {
	_, err := d.Bun.NewInsert().Model(&show).Exec(context.Background())
	require.NoError(t, err)
}

func futureShowtime(id string, reserved []string) models.Showtime {
	return models.Showtime{
		ShowtimeID:    id,
		MovieID:       "movie-1",
		Date:          time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		StartTime:     "19:30",
		PriceMap:      testPrices(),
		SeatsReserved: reserved,
		CreatedAt:     time.Now(),
	}
}

func TestReserveAndBookCleanPath(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	insertShowtime(t, d, futureShowtime("show-1", []string{"A1", "A2"}))

	b := &models.Booking{
		BookingID:  "booking-1",
		UserID:     "user-1",
		ShowtimeID: "show-1",
		Seats:      []string{"B3", "B4"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now().Round(time.Second),
	}
	require.NoError(t, d.ReserveAndBook(ctx, b))

	// Total comes from the price map, not from the client.
	assert.Equal(t, 1600.0, b.Total)
	assert.Equal(t, seats.CategoryClassic, b.SeatType)
	assert.Equal(t, "movie-1", b.MovieID)

	show, err := d.GetShowtimeByID(ctx, "show-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B3", "B4"}, show.SeatsReserved)

	stored, err := d.GetBookingByID(ctx, "booking-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, stored.Status)
	assert.Equal(t, []string{"B3", "B4"}, stored.Seats)
}

func TestReserveAndBookMixedCategories(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	insertShowtime(t, d, futureShowtime("show-1", nil))

	b := &models.Booking{
		BookingID:  "booking-1",
		UserID:     "user-1",
		ShowtimeID: "show-1",
		Seats:      []string{"C10", "D1", "H5"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, d.ReserveAndBook(ctx, b))

	assert.Equal(t, 800.0+1200.0+1800.0, b.Total)
	assert.Equal(t, seats.CategoryMixed, b.SeatType)
}

func TestReserveAndBookSeatConflict(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	insertShowtime(t, d, futureShowtime("show-1", []string{"A1", "A2", "B1"}))

	b := &models.Booking{
		BookingID:  "booking-conflict",
		UserID:     "user-2",
		ShowtimeID: "show-1",
		Seats:      []string{"A2", "A3", "B1"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	err := d.ReserveAndBook(ctx, b)
	require.Error(t, err)

	sc, ok := booking.AsSeatConflict(err)
	require.True(t, ok, "expected a seat conflict, got %v", err)
	assert.ElementsMatch(t, []string{"A2", "B1"}, sc.Seats)

	// Nothing was written: reserved list unchanged, no booking row.
	show, err := d.GetShowtimeByID(ctx, "show-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B1"}, show.SeatsReserved)

	_, err = d.GetBookingByID(ctx, "booking-conflict")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestReserveAndBookExpiredShowtime(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	past := futureShowtime("show-past", nil)
	past.Date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	insertShowtime(t, d, past)

	b := &models.Booking{
		BookingID:  "booking-late",
		UserID:     "user-1",
		ShowtimeID: "show-past",
		Seats:      []string{"A1"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	err := d.ReserveAndBook(ctx, b)
	assert.ErrorIs(t, err, booking.ErrShowtimeExpired)

	show, err := d.GetShowtimeByID(ctx, "show-past")
	require.NoError(t, err)
	assert.Empty(t, show.SeatsReserved)
}

func TestReserveAndBookMissingShowtime(t *testing.T) {
	d := setupTestDB(t)

	b := &models.Booking{
		BookingID:  "booking-x",
		UserID:     "user-1",
		ShowtimeID: "no-such-show",
		Seats:      []string{"A1"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	err := d.ReserveAndBook(context.Background(), b)
	assert.ErrorIs(t, err, booking.ErrShowtimeNotFound)
}

func TestReserveAndBookRejectsAliasedSeatIDs(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	insertShowtime(t, d, futureShowtime("show-1", []string{"A1"}))

	// "A01" means the same physical seat as the already-sold "A1" but
	// compares unequal in the conflict intersection. It must be thrown
	// out as malformed before it can reach the reserved list.
	b := &models.Booking{
		BookingID:  "booking-alias",
		UserID:     "user-2",
		ShowtimeID: "show-1",
		Seats:      []string{"A01"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	err := d.ReserveAndBook(ctx, b)
	require.Error(t, err)

	show, err := d.GetShowtimeByID(ctx, "show-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, show.SeatsReserved)

	_, err = d.GetBookingByID(ctx, "booking-alias")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestReservedListStaysWithinGrid(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	insertShowtime(t, d, futureShowtime("show-1", []string{"C9", "C10"}))

	b := &models.Booking{
		BookingID:  "booking-1",
		UserID:     "user-1",
		ShowtimeID: "show-1",
		Seats:      []string{"A1", "D10", "H1"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, d.ReserveAndBook(ctx, b))

	valid := make(map[string]bool)
	for _, id := range seats.AllSeatIDs() {
		valid[id] = true
	}

	show, err := d.GetShowtimeByID(ctx, "show-1")
	require.NoError(t, err)
	require.Len(t, show.SeatsReserved, 5)
	for _, id := range show.SeatsReserved {
		assert.True(t, valid[id], "reserved id %q is outside the 80-seat grid", id)
	}
}

func TestRedeemBookingIsOneWay(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	insertShowtime(t, d, futureShowtime("show-1", nil))

	b := &models.Booking{
		BookingID:  "booking-1",
		UserID:     "user-1",
		ShowtimeID: "show-1",
		Seats:      []string{"G1", "G2"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, d.ReserveAndBook(ctx, b))

	firstScan := time.Now().Round(time.Second)
	redeemed, err := d.RedeemBooking(ctx, "booking-1", firstScan)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRedeemed, redeemed.Status)
	assert.WithinDuration(t, firstScan, redeemed.RedeemedAt, time.Second)

	// Second scan: warning error, record untouched.
	again, err := d.RedeemBooking(ctx, "booking-1", firstScan.Add(5*time.Minute))
	assert.ErrorIs(t, err, booking.ErrAlreadyRedeemed)
	require.NotNil(t, again)
	assert.Equal(t, models.BookingStatusRedeemed, again.Status)
	assert.WithinDuration(t, firstScan, again.RedeemedAt, time.Second)

	stored, err := d.GetBookingByID(ctx, "booking-1")
	require.NoError(t, err)
	assert.WithinDuration(t, firstScan, stored.RedeemedAt, time.Second)
}

func TestRedeemBookingNotFound(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.RedeemBooking(context.Background(), "no-such-booking", time.Now())
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestGetBookingsByUserOrdering(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	insertShowtime(t, d, futureShowtime("show-1", nil))

	older := &models.Booking{
		BookingID:  "booking-old",
		UserID:     "user-1",
		ShowtimeID: "show-1",
		Seats:      []string{"A1"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	newer := &models.Booking{
		BookingID:  "booking-new",
		UserID:     "user-1",
		ShowtimeID: "show-1",
		Seats:      []string{"A2"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, d.ReserveAndBook(ctx, older))
	require.NoError(t, d.ReserveAndBook(ctx, newer))

	other := &models.Booking{
		BookingID:  "booking-other",
		UserID:     "user-2",
		ShowtimeID: "show-1",
		Seats:      []string{"A3"},
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, d.ReserveAndBook(ctx, other))

	bookings, err := d.GetBookingsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "booking-new", bookings[0].BookingID)
	assert.Equal(t, "booking-old", bookings[1].BookingID)
}
