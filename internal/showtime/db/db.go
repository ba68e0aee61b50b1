package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/showtime"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateShowtime(ctx context.Context, s models.Showtime) error {
	_, err := d.Bun.NewInsert().Model(&s).Exec(ctx)
	return err
}

func (d *DB) GetShowtimeByID(ctx context.Context, id string) (*models.Showtime, error) {
	var s models.Showtime
	err := d.Bun.NewSelect().
		Model(&s).
		Where("showtime_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, showtime.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (d *DB) ListShowtimes(ctx context.Context) ([]models.Showtime, error) {
	var shows []models.Showtime
	err := d.Bun.NewSelect().
		Model(&shows).
		Order("date", "start_time").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return shows, nil
}

func (d *DB) ListShowtimesByMovie(ctx context.Context, movieID string) ([]models.Showtime, error) {
	var shows []models.Showtime
	err := d.Bun.NewSelect().
		Model(&shows).
		Where("movie_id = ?", movieID).
		Order("date", "start_time").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return shows, nil
}

// UpdateShowtime rewrites schedule and pricing columns. seats_reserved is
// intentionally absent from the column list: only the booking transaction
// writes it.
func (d *DB) UpdateShowtime(ctx context.Context, s models.Showtime) error {
	_, err := d.Bun.NewUpdate().
		Model(&s).
		Column("movie_id", "date", "start_time", "price_map").
		Where("showtime_id = ?", s.ShowtimeID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteShowtime(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Showtime)(nil)).
		Where("showtime_id = ?", id).
		Exec(ctx)
	return err
}

// ShowtimeExists reports whether a screening with the same
// (movie, date, time) triple is already scheduled.
func (d *DB) ShowtimeExists(ctx context.Context, movieID, date, startTime string) (bool, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Showtime)(nil)).
		Where("movie_id = ?", movieID).
		Where("date = ?", date).
		Where("start_time = ?", startTime).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *DB) CountBookings(ctx context.Context, showtimeID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("showtime_id = ?", showtimeID).
		Count(ctx)
}
