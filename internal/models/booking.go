package models

import (
	"time"

	"github.com/uptrace/bun"

	"cinema-ticketing/internal/seats"
)

const (
	BookingStatusPaid     = "paid"
	BookingStatusRedeemed = "redeemed"
)

// Booking is one buyer's purchase of seats for one showtime. The seat set
// never changes after creation; the only mutable field is Status, which
// moves paid -> redeemed exactly once.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID  string         `bun:"booking_id,pk" json:"booking_id"`
	UserID     string         `bun:"user_id,notnull" json:"user_id"`
	MovieID    string         `bun:"movie_id,notnull" json:"movie_id"`
	ShowtimeID string         `bun:"showtime_id,notnull" json:"showtime_id"`
	Seats      []string       `bun:"seats" json:"seats"`
	SeatType   seats.Category `bun:"seat_type" json:"seat_type"`
	Total      float64        `bun:"total" json:"total"`
	Status     string         `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time      `bun:"created_at" json:"created_at"`
	RedeemedAt time.Time      `bun:"redeemed_at,nullzero" json:"redeemed_at,omitempty"`
}

// BookingRequest is what the checkout screen submits. SeatType and Total
// are the client's view of the purchase; the engine recomputes both from
// the showtime's price map and only logs a mismatch.
type BookingRequest struct {
	ShowtimeID string   `json:"showtime_id"`
	MovieID    string   `json:"movie_id"`
	Seats      []string `json:"seats"`
	SeatType   string   `json:"seat_type"`
	Total      float64  `json:"total"`
}

type BookingResponse struct {
	BookingID string   `json:"booking_id"`
	UserID    string   `json:"user_id"`
	Seats     []string `json:"seats"`
	Total     float64  `json:"total"`
	Status    string   `json:"status"`
}
