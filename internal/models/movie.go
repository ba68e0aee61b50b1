package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Movie struct {
	bun.BaseModel `bun:"table:movies"`

	MovieID      string    `bun:"movie_id,pk" json:"movie_id"`
	Title        string    `bun:"title,notnull" json:"title"`
	Description  string    `bun:"description" json:"description"`
	PosterURL    string    `bun:"poster_url" json:"poster_url"`
	ReleaseDate  time.Time `bun:"release_date" json:"release_date"`
	DurationMins int       `bun:"duration_mins" json:"duration_mins"`
	CreatedAt    time.Time `bun:"created_at" json:"created_at"`
}

type MovieRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	PosterURL    string `json:"poster_url"`
	ReleaseDate  string `json:"release_date"` // YYYY-MM-DD
	DurationMins int    `json:"duration_mins"`
}
