package movie

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cinema-ticketing/internal/logger"
	"cinema-ticketing/internal/models"
)

var ErrNotFound = errors.New("movie not found")

type DBLayer interface {
	CreateMovie(ctx context.Context, m models.Movie) error
	GetMovieByID(ctx context.Context, id string) (*models.Movie, error)
	ListMovies(ctx context.Context) ([]models.Movie, error)
	UpdateMovie(ctx context.Context, m models.Movie) error
	DeleteMovie(ctx context.Context, id string) error
}

type MovieService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewMovieService(db DBLayer, log *logger.Logger) *MovieService {
	return &MovieService{DB: db, Logger: log}
}

func (s *MovieService) Create(ctx context.Context, req models.MovieRequest) (*models.Movie, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("missing title")
	}
	release, err := parseReleaseDate(req.ReleaseDate)
	if err != nil {
		return nil, err
	}

	m := models.Movie{
		MovieID:      uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		PosterURL:    req.PosterURL,
		ReleaseDate:  release,
		DurationMins: req.DurationMins,
		CreatedAt:    time.Now(),
	}
	if err := s.DB.CreateMovie(ctx, m); err != nil {
		return nil, err
	}
	s.Logger.Info("MOVIE", fmt.Sprintf("created movie %s (%s)", m.MovieID, m.Title))
	return &m, nil
}

func (s *MovieService) Get(ctx context.Context, id string) (*models.Movie, error) {
	return s.DB.GetMovieByID(ctx, id)
}

func (s *MovieService) List(ctx context.Context) ([]models.Movie, error) {
	return s.DB.ListMovies(ctx)
}

func (s *MovieService) Update(ctx context.Context, id string, req models.MovieRequest) (*models.Movie, error) {
	m, err := s.DB.GetMovieByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		m.Title = req.Title
	}
	m.Description = req.Description
	m.PosterURL = req.PosterURL
	if req.ReleaseDate != "" {
		release, err := parseReleaseDate(req.ReleaseDate)
		if err != nil {
			return nil, err
		}
		m.ReleaseDate = release
	}
	if req.DurationMins > 0 {
		m.DurationMins = req.DurationMins
	}

	if err := s.DB.UpdateMovie(ctx, *m); err != nil {
		return nil, err
	}
	s.Logger.Info("MOVIE", fmt.Sprintf("updated movie %s", id))
	return m, nil
}

func (s *MovieService) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.GetMovieByID(ctx, id); err != nil {
		return err
	}
	if err := s.DB.DeleteMovie(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("MOVIE", fmt.Sprintf("deleted movie %s", id))
	return nil
}

func parseReleaseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("release_date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
