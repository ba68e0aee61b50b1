package showtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cinema-ticketing/internal/logger"
	"cinema-ticketing/internal/models"
)

// ErrShowtimeHasBookings blocks deletion of a showtime that bookings still
// reference.
var ErrShowtimeHasBookings = errors.New("showtime has bookings and cannot be deleted")

var ErrNotFound = errors.New("showtime not found")

type DBLayer interface {
	CreateShowtime(ctx context.Context, s models.Showtime) error
	GetShowtimeByID(ctx context.Context, id string) (*models.Showtime, error)
	ListShowtimes(ctx context.Context) ([]models.Showtime, error)
	ListShowtimesByMovie(ctx context.Context, movieID string) ([]models.Showtime, error)
	UpdateShowtime(ctx context.Context, s models.Showtime) error
	DeleteShowtime(ctx context.Context, id string) error
	ShowtimeExists(ctx context.Context, movieID, date, startTime string) (bool, error)
	CountBookings(ctx context.Context, showtimeID string) (int, error)
}

// ShowtimeService owns admin-side scheduling. It never touches a
// showtime's reserved list: that column belongs to the booking engine.
type ShowtimeService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewShowtimeService(db DBLayer, log *logger.Logger) *ShowtimeService {
	return &ShowtimeService{DB: db, Logger: log}
}

func (s *ShowtimeService) Create(ctx context.Context, req models.ShowtimeRequest) (*models.Showtime, error) {
	if req.MovieID == "" {
		return nil, fmt.Errorf("missing movie id")
	}
	if err := models.ValidateSchedule(req.Date, req.StartTime); err != nil {
		return nil, err
	}
	if err := req.PriceMap.Validate(); err != nil {
		return nil, err
	}

	show := models.Showtime{
		ShowtimeID:    uuid.NewString(),
		MovieID:       req.MovieID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		PriceMap:      req.PriceMap,
		SeatsReserved: []string{},
		CreatedAt:     time.Now(),
	}
	if err := s.DB.CreateShowtime(ctx, show); err != nil {
		return nil, err
	}
	s.Logger.LogShowtime("CREATE", show.ShowtimeID, fmt.Sprintf("movie=%s %s %s", show.MovieID, show.Date, show.StartTime))
	return &show, nil
}

// CreateBulk schedules the same screening across consecutive days starting
// from StartDate. Days already past and (movie, date, time) duplicates are
// counted as skipped, never as failures; only storage errors abort the run.
func (s *ShowtimeService) CreateBulk(ctx context.Context, req models.BulkShowtimeRequest) (*models.BulkShowtimeResult, error) {
	if req.MovieID == "" {
		return nil, fmt.Errorf("missing movie id")
	}
	if err := models.ValidateSchedule(req.StartDate, req.StartTime); err != nil {
		return nil, err
	}
	if err := req.PriceMap.Validate(); err != nil {
		return nil, err
	}
	days := req.Days
	if days <= 0 {
		days = 7
	}

	result := &models.BulkShowtimeResult{}
	now := time.Now()
	for i := 0; i < days; i++ {
		date, err := models.AddDays(req.StartDate, i)
		if err != nil {
			return nil, err
		}

		candidate := models.Showtime{
			ShowtimeID:    uuid.NewString(),
			MovieID:       req.MovieID,
			Date:          date,
			StartTime:     req.StartTime,
			PriceMap:      req.PriceMap,
			SeatsReserved: []string{},
			CreatedAt:     now,
		}

		started, err := candidate.HasStarted(now)
		if err != nil {
			return nil, err
		}
		if started {
			result.Skipped++
			continue
		}

		exists, err := s.DB.ShowtimeExists(ctx, req.MovieID, date, req.StartTime)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		if err := s.DB.CreateShowtime(ctx, candidate); err != nil {
			return nil, err
		}
		result.Created++
	}

	s.Logger.LogShowtime("BULK", req.MovieID, fmt.Sprintf("created=%d skipped=%d from %s %s", result.Created, result.Skipped, req.StartDate, req.StartTime))
	return result, nil
}

func (s *ShowtimeService) Get(ctx context.Context, id string) (*models.Showtime, error) {
	return s.DB.GetShowtimeByID(ctx, id)
}

func (s *ShowtimeService) List(ctx context.Context) ([]models.Showtime, error) {
	return s.DB.ListShowtimes(ctx)
}

func (s *ShowtimeService) ListByMovie(ctx context.Context, movieID string) ([]models.Showtime, error) {
	return s.DB.ListShowtimesByMovie(ctx, movieID)
}

// Update rewrites the schedule and prices of a showtime. The reserved list
// is deliberately not part of the request shape, so a freehand admin edit
// of seat occupancy is impossible through this path.
func (s *ShowtimeService) Update(ctx context.Context, id string, req models.ShowtimeRequest) (*models.Showtime, error) {
	show, err := s.DB.GetShowtimeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateSchedule(req.Date, req.StartTime); err != nil {
		return nil, err
	}
	if err := req.PriceMap.Validate(); err != nil {
		return nil, err
	}

	if req.MovieID != "" {
		show.MovieID = req.MovieID
	}
	show.Date = req.Date
	show.StartTime = req.StartTime
	show.PriceMap = req.PriceMap

	if err := s.DB.UpdateShowtime(ctx, *show); err != nil {
		return nil, err
	}
	s.Logger.LogShowtime("UPDATE", show.ShowtimeID, fmt.Sprintf("%s %s", show.Date, show.StartTime))
	return show, nil
}

// Delete removes a showtime only when no booking references it.
func (s *ShowtimeService) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.GetShowtimeByID(ctx, id); err != nil {
		return err
	}
	count, err := s.DB.CountBookings(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrShowtimeHasBookings
	}
	if err := s.DB.DeleteShowtime(ctx, id); err != nil {
		return err
	}
	s.Logger.LogShowtime("DELETE", id, "showtime removed")
	return nil
}
