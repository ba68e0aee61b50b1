package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"cinema-ticketing/internal/seats"
)

// Showtime is one scheduled screening of a movie. Date and start time are
// stored exactly as the venue schedules them ("2025-12-31" / "19:30") with
// no timezone; they are interpreted in the venue's local zone.
//
// SeatsReserved is the single authoritative record of seat occupancy for
// the screening. Only the booking transaction may add to it; admin edits
// never touch it.
type Showtime struct {
	bun.BaseModel `bun:"table:showtimes"`

	ShowtimeID    string         `bun:"showtime_id,pk" json:"showtime_id"`
	MovieID       string         `bun:"movie_id,notnull" json:"movie_id"`
	Date          string         `bun:"date,notnull" json:"date"`             // YYYY-MM-DD
	StartTime     string         `bun:"start_time,notnull" json:"start_time"` // HH:mm
	PriceMap      seats.PriceMap `bun:"price_map" json:"price_map"`
	SeatsReserved []string       `bun:"seats_reserved" json:"seats_reserved"`
	CreatedAt     time.Time      `bun:"created_at" json:"created_at"`
}

const (
	showtimeDateLayout = "2006-01-02"
	showtimeTimeLayout = "15:04"
)

// StartsAt combines Date and StartTime into a venue-local instant.
func (s *Showtime) StartsAt() (time.Time, error) {
	t, err := time.ParseInLocation(showtimeDateLayout+" "+showtimeTimeLayout, s.Date+" "+s.StartTime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("showtime %s has malformed schedule %q %q: %w", s.ShowtimeID, s.Date, s.StartTime, err)
	}
	return t, nil
}

// HasStarted reports whether the scheduled start is earlier than now.
// A purchase can never complete for a showtime that has started, no matter
// what the buyer's stale seat-map read said.
func (s *Showtime) HasStarted(now time.Time) (bool, error) {
	starts, err := s.StartsAt()
	if err != nil {
		return false, err
	}
	return starts.Before(now), nil
}

// ValidateSchedule checks the date and time fields parse under the stored
// layouts. Used when admins create or update showtimes.
func ValidateSchedule(date, startTime string) error {
	if _, err := time.Parse(showtimeDateLayout, date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	if _, err := time.Parse(showtimeTimeLayout, startTime); err != nil {
		return fmt.Errorf("start_time must be HH:mm: %w", err)
	}
	return nil
}

// AddDays shifts a YYYY-MM-DD date string by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := time.Parse(showtimeDateLayout, date)
	if err != nil {
		return "", fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t.AddDate(0, 0, n).Format(showtimeDateLayout), nil
}

type ShowtimeRequest struct {
	MovieID   string         `json:"movie_id"`
	Date      string         `json:"date"`
	StartTime string         `json:"start_time"`
	PriceMap  seats.PriceMap `json:"price_map"`
}

type BulkShowtimeRequest struct {
	MovieID   string         `json:"movie_id"`
	StartDate string         `json:"start_date"`
	StartTime string         `json:"start_time"`
	Days      int            `json:"days"`
	PriceMap  seats.PriceMap `json:"price_map"`
}

// BulkShowtimeResult reports how a bulk run went. Skipped days (past
// schedule or duplicate triple) are not errors.
type BulkShowtimeResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
