package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cinema-ticketing/internal/auth"
	"cinema-ticketing/internal/booking"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/sse"
)

type QRGenerator interface {
	GenerateBookingQR(b models.Booking) ([]byte, error)
}

type Handler struct {
	BookingService *booking.BookingService
	QR             QRGenerator
	Emitter        *sse.SeatEventEmitter
}

// CreateBooking handles the checkout submission. The buyer's selection was
// made against a possibly-stale seat map; the engine re-validates inside
// the transaction and this handler just translates the outcome.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	b, err := h.BookingService.ReserveAndBook(r.Context(), userID, req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	// Push the fresh seat map to anyone watching this showtime.
	if h.Emitter != nil {
		if reserved, rerr := h.BookingService.ReservedSeats(r.Context(), b.ShowtimeID); rerr == nil {
			h.Emitter.Emit(models.SeatUpdate{
				ShowtimeID:    b.ShowtimeID,
				SeatsReserved: reserved,
				UpdatedAt:     time.Now(),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.BookingResponse{
		BookingID: b.BookingID,
		UserID:    b.UserID,
		Seats:     b.Seats,
		Total:     b.Total,
		Status:    b.Status,
	})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	b, err := h.BookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	bookings, err := h.BookingService.ListByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "Could not list bookings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

// RedeemBooking marks a scanned ticket as used. A repeat scan answers 200
// with already_redeemed=true so door staff see a warning, not an error.
func (h *Handler) RedeemBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	b, err := h.BookingService.Redeem(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrAlreadyRedeemed) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"booking":          b,
				"already_redeemed": true,
			})
			return
		}
		h.writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"booking":          b,
		"already_redeemed": false,
	})
}

// GetBookingQR renders the booking's QR code as a PNG.
func (h *Handler) GetBookingQR(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	b, err := h.BookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	png, err := h.QR.GenerateBookingQR(*b)
	if err != nil {
		http.Error(w, "Could not generate QR: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// GetReservedSeats returns the current reserved list for the seat-map screen.
func (h *Handler) GetReservedSeats(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "showtimeId")
	reserved, err := h.BookingService.ReservedSeats(r.Context(), showtimeID)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	if reserved == nil {
		reserved = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"showtime_id":    showtimeID,
		"seats_reserved": reserved,
	})
}

// StreamSeatUpdates is the SSE endpoint pushing seat-map changes for one
// showtime while the buyer sits on the selection screen.
func (h *Handler) StreamSeatUpdates(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "showtimeId")

	if h.Emitter == nil {
		http.Error(w, "streaming unavailable", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := h.Emitter.Subscribe(r.Context(), showtimeID)
	for update := range updates {
		payload, err := json.Marshal(update)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	if sc, ok := booking.AsSeatConflict(err); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":             sc.Error(),
			"conflicting_seats": sc.Seats,
		})
		return
	}
	switch {
	case errors.Is(err, booking.ErrShowtimeNotFound), errors.Is(err, booking.ErrBookingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrShowtimeExpired):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, booking.ErrStorageUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
