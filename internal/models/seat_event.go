package models

import "time"

// SeatUpdate is broadcast over SSE and Kafka whenever a booking commits,
// carrying the showtime's full reserved list so clients can redraw the
// seat map without another fetch.
type SeatUpdate struct {
	ShowtimeID    string    `json:"showtime_id"`
	SeatsReserved []string  `json:"seats_reserved"`
	UpdatedAt     time.Time `json:"updated_at"`
}
