package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/movie"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateMovie(ctx context.Context, m models.Movie) error {
	_, err := d.Bun.NewInsert().Model(&m).Exec(ctx)
	return err
}

func (d *DB) GetMovieByID(ctx context.Context, id string) (*models.Movie, error) {
	var m models.Movie
	err := d.Bun.NewSelect().
		Model(&m).
		Where("movie_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, movie.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (d *DB) ListMovies(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	err := d.Bun.NewSelect().
		Model(&movies).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return movies, nil
}

func (d *DB) UpdateMovie(ctx context.Context, m models.Movie) error {
	_, err := d.Bun.NewUpdate().
		Model(&m).
		Column("title", "description", "poster_url", "release_date", "duration_mins").
		Where("movie_id = ?", m.MovieID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteMovie(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Movie)(nil)).
		Where("movie_id = ?", id).
		Exec(ctx)
	return err
}
