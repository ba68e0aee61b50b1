package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/showtime"
	"cinema-ticketing/internal/utils"
)

type Handler struct {
	ShowtimeService *showtime.ShowtimeService
}

func (h *Handler) CreateShowtime(w http.ResponseWriter, r *http.Request) {
	var req models.ShowtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	show, err := h.ShowtimeService.Create(r.Context(), req)
	if err != nil {
		http.Error(w, "Could not create showtime: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(utils.SuccessResponse("showtime created", show))
}

// CreateShowtimesBulk schedules the same screening over N consecutive days.
func (h *Handler) CreateShowtimesBulk(w http.ResponseWriter, r *http.Request) {
	var req models.BulkShowtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.ShowtimeService.CreateBulk(r.Context(), req)
	if err != nil {
		http.Error(w, "Bulk creation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(utils.SuccessResponse("bulk run complete", result))
}

func (h *Handler) GetShowtime(w http.ResponseWriter, r *http.Request) {
	show, err := h.ShowtimeService.Get(r.Context(), chi.URLParam(r, "showtimeId"))
	if err != nil {
		http.Error(w, "Showtime not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(show)
}

func (h *Handler) ListShowtimes(w http.ResponseWriter, r *http.Request) {
	var (
		shows []models.Showtime
		err   error
	)
	if movieID := r.URL.Query().Get("movie_id"); movieID != "" {
		shows, err = h.ShowtimeService.ListByMovie(r.Context(), movieID)
	} else {
		shows, err = h.ShowtimeService.List(r.Context())
	}
	if err != nil {
		http.Error(w, "Could not list showtimes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if shows == nil {
		shows = []models.Showtime{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(shows)
}

func (h *Handler) UpdateShowtime(w http.ResponseWriter, r *http.Request) {
	var req models.ShowtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	show, err := h.ShowtimeService.Update(r.Context(), chi.URLParam(r, "showtimeId"), req)
	if err != nil {
		if errors.Is(err, showtime.ErrNotFound) {
			http.Error(w, "Showtime not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not update showtime: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.SuccessResponse("showtime updated", show))
}

func (h *Handler) DeleteShowtime(w http.ResponseWriter, r *http.Request) {
	err := h.ShowtimeService.Delete(r.Context(), chi.URLParam(r, "showtimeId"))
	if err != nil {
		if errors.Is(err, showtime.ErrNotFound) {
			http.Error(w, "Showtime not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, showtime.ErrShowtimeHasBookings) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "Could not delete showtime: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
