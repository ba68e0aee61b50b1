package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"cinema-ticketing/internal/logger"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/seats"
)

type DBLayer interface {
	ReserveAndBook(ctx context.Context, b *models.Booking) error
	RedeemBooking(ctx context.Context, bookingID string, at time.Time) (*models.Booking, error)
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	GetShowtimeByID(ctx context.Context, id string) (*models.Showtime, error)
}

type SeatCache interface {
	GetReservedSeats(ctx context.Context, showtimeID string) ([]string, bool, error)
	SetReservedSeats(ctx context.Context, showtimeID string, seats []string) error
	InvalidateShowtime(ctx context.Context, showtimeID string) error
}

type Publisher interface {
	PublishBookingCreated(b models.Booking) error
	PublishBookingRedeemed(b models.Booking) error
}

// BookingService is the only writer of seat reservations. Everything that
// mutates a showtime's reserved list goes through ReserveAndBook, which
// delegates the read-check-write to a single storage transaction.
type BookingService struct {
	DB     DBLayer
	Cache  SeatCache
	Kafka  Publisher
	Logger *logger.Logger
}

func NewBookingService(db DBLayer, cache SeatCache, kafka Publisher, log *logger.Logger) *BookingService {
	return &BookingService{DB: db, Cache: cache, Kafka: kafka, Logger: log}
}

// ReserveAndBook validates the request, then runs the atomic reservation
// transaction. On success the returned booking carries the authoritative
// total and derived seat category, which may differ from what the client
// declared.
func (s *BookingService) ReserveAndBook(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user id")
	}
	if req.ShowtimeID == "" {
		return nil, fmt.Errorf("missing showtime id")
	}
	if len(req.Seats) == 0 {
		return nil, fmt.Errorf("no seats selected")
	}

	seen := make(map[string]bool, len(req.Seats))
	for _, id := range req.Seats {
		if _, err := seats.CategoryFor(id); err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate seat %s in selection", id)
		}
		seen[id] = true
	}

	b := &models.Booking{
		BookingID:  uuid.NewString(),
		UserID:     userID,
		MovieID:    req.MovieID,
		ShowtimeID: req.ShowtimeID,
		Seats:      sortedCopy(req.Seats),
		Status:     models.BookingStatusPaid,
		CreatedAt:  time.Now(),
	}

	// The db layer fills in Total and SeatType from the showtime's price
	// map inside the transaction. The declared total is a hint only.
	if err := s.DB.ReserveAndBook(ctx, b); err != nil {
		return nil, err
	}

	if req.Total != 0 && req.Total != b.Total {
		s.Logger.Warn("BOOKING", fmt.Sprintf("client declared total %.2f but authoritative total is %.2f for booking %s", req.Total, b.Total, b.BookingID))
	}
	s.Logger.LogBooking("RESERVE", b.BookingID, fmt.Sprintf("showtime=%s seats=%v total=%.2f", b.ShowtimeID, b.Seats, b.Total))

	if err := s.Cache.InvalidateShowtime(ctx, b.ShowtimeID); err != nil {
		s.Logger.Error("CACHE", fmt.Sprintf("failed to invalidate seat cache for showtime %s: %v", b.ShowtimeID, err))
	}
	if err := s.Kafka.PublishBookingCreated(*b); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish booking created for %s: %v", b.BookingID, err))
	}

	return b, nil
}

// Redeem marks a booking as used at the venue door. The transition is
// one-way; a second call surfaces ErrAlreadyRedeemed without modifying the
// record, so scanning the same ticket twice is harmless.
func (s *BookingService) Redeem(ctx context.Context, bookingID string) (*models.Booking, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("missing booking id")
	}

	b, err := s.DB.RedeemBooking(ctx, bookingID, time.Now())
	if err != nil {
		return b, err
	}

	s.Logger.LogBooking("REDEEM", b.BookingID, fmt.Sprintf("showtime=%s seats=%v", b.ShowtimeID, b.Seats))

	if err := s.Kafka.PublishBookingRedeemed(*b); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish booking redeemed for %s: %v", b.BookingID, err))
	}
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.DB.GetBookingByID(ctx, id)
}

func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.DB.GetBookingsByUser(ctx, userID)
}

// ReservedSeats returns the current reserved list for a showtime, serving
// from the cache when possible. This is the client's pre-selection view;
// the transaction re-validates against the store regardless.
func (s *BookingService) ReservedSeats(ctx context.Context, showtimeID string) ([]string, error) {
	if cached, ok, err := s.Cache.GetReservedSeats(ctx, showtimeID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.Logger.Warn("CACHE", fmt.Sprintf("seat cache read failed for showtime %s: %v", showtimeID, err))
	}

	show, err := s.DB.GetShowtimeByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.SetReservedSeats(ctx, showtimeID, show.SeatsReserved); err != nil {
		s.Logger.Warn("CACHE", fmt.Sprintf("seat cache write failed for showtime %s: %v", showtimeID, err))
	}
	return show.SeatsReserved, nil
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
