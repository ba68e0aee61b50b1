package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/movie"
	"cinema-ticketing/internal/utils"
)

type Handler struct {
	MovieService *movie.MovieService
}

func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var req models.MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.MovieService.Create(r.Context(), req)
	if err != nil {
		http.Error(w, "Could not create movie: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(utils.SuccessResponse("movie created", m))
}

func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	m, err := h.MovieService.Get(r.Context(), chi.URLParam(r, "movieId"))
	if err != nil {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.MovieService.List(r.Context())
	if err != nil {
		http.Error(w, "Could not list movies: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movies)
}

func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	var req models.MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.MovieService.Update(r.Context(), chi.URLParam(r, "movieId"), req)
	if err != nil {
		if errors.Is(err, movie.ErrNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not update movie: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.SuccessResponse("movie updated", m))
}

func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	err := h.MovieService.Delete(r.Context(), chi.URLParam(r, "movieId"))
	if err != nil {
		if errors.Is(err, movie.ErrNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not delete movie: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
