package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"cinema-ticketing/internal/auth"
	"cinema-ticketing/internal/booking"
	booking_db "cinema-ticketing/internal/booking/db"
	"cinema-ticketing/internal/config"
	"cinema-ticketing/internal/kafka"
	"cinema-ticketing/internal/logger"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/qr"
)

// admissionCounter tracks per-showtime sold and redeemed counts so door
// staff can see how many ticket holders are still expected. Fed by the
// booking event topics, reset on restart.
type admissionCounter struct {
	mu       sync.RWMutex
	sold     map[string]int
	redeemed map[string]int
}

func newAdmissionCounter() *admissionCounter {
	return &admissionCounter{
		sold:     make(map[string]int),
		redeemed: make(map[string]int),
	}
}

func (c *admissionCounter) recordSold(b models.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sold[b.ShowtimeID] += len(b.Seats)
}

func (c *admissionCounter) recordRedeemed(b models.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redeemed[b.ShowtimeID] += len(b.Seats)
}

func (c *admissionCounter) stats(showtimeID string) (sold, redeemed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sold[showtimeID], c.redeemed[showtimeID]
}

type scanRequest struct {
	Code string `json:"code"`
}

type scanHandler struct {
	db      *booking_db.DB
	qr      *qr.QRGenerator
	counter *admissionCounter
	logger  *logger.Logger
}

// Scan decodes a QR payload captured at the door and redeems the booking
// it references. A repeat scan answers 200 with already_redeemed=true so
// staff see a warning rather than an error.
func (h *scanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := h.qr.DecodePayload(req.Code)
	if err != nil {
		http.Error(w, "Unreadable ticket code: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.redeem(w, r, payload.BookingID)
}

// RedeemByID is the fallback for when the camera fails and staff type the
// booking reference from the buyer's receipt screen.
func (h *scanHandler) RedeemByID(w http.ResponseWriter, r *http.Request) {
	h.redeem(w, r, chi.URLParam(r, "bookingId"))
}

func (h *scanHandler) redeem(w http.ResponseWriter, r *http.Request, bookingID string) {
	staffID := "unknown"
	if token, err := auth.ExtractTokenFromRequest(r); err == nil {
		if sub, err := auth.ExtractUserIDFromJWT(token); err == nil {
			staffID = sub
		}
	}

	b, err := h.db.RedeemBooking(r.Context(), bookingID, time.Now())
	alreadyRedeemed := false
	if err != nil {
		if errors.Is(err, booking.ErrAlreadyRedeemed) {
			alreadyRedeemed = true
		} else if errors.Is(err, booking.ErrBookingNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return
		} else {
			http.Error(w, "Redemption failed: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	h.logger.LogBooking("SCAN", b.BookingID,
		fmt.Sprintf("staff=%s showtime=%s seats=%v already_redeemed=%v", staffID, b.ShowtimeID, b.Seats, alreadyRedeemed))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"booking":          b,
		"already_redeemed": alreadyRedeemed,
	})
}

// ShowtimeStats reports sold vs redeemed seat counts for one screening.
func (h *scanHandler) ShowtimeStats(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "showtimeId")
	sold, redeemed := h.counter.stats(showtimeID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"showtime_id":    showtimeID,
		"seats_sold":     sold,
		"seats_redeemed": redeemed,
	})
}

func main() {
	_ = godotenv.Load()

	appLogger := logger.NewLogger()
	defer appLogger.Close()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("[Database] Failed to open Postgres: %v", err)
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatalf("[Database] Failed to connect to Postgres: %v", err)
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	counter := newAdmissionCounter()

	if cfg.Kafka.Enabled {
		createdConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.TopicBookingCreated, cfg.Kafka.GroupID)
		redeemedConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.TopicBookingRedeemed, cfg.Kafka.GroupID)
		defer createdConsumer.Close()
		defer redeemedConsumer.Close()

		go createdConsumer.Start(ctx, counter.recordSold)
		go redeemedConsumer.Start(ctx, counter.recordRedeemed)
		appLogger.Info("KAFKA", "Admission counters consuming booking topics")
	} else {
		appLogger.Warn("KAFKA", "Kafka disabled, admission counters will stay at zero")
	}

	handler := &scanHandler{
		db:      &booking_db.DB{Bun: bunDB},
		qr:      qr.NewQRGenerator(cfg.QR.SecretKey),
		counter: counter,
		logger:  appLogger,
	}

	r := chi.NewRouter()
	r.Route("/api/scanner", func(r chi.Router) {
		r.Post("/scan", handler.Scan)
		r.Post("/bookings/{bookingId}/redeem", handler.RedeemByID)
		r.Get("/showtimes/{showtimeId}/stats", handler.ShowtimeStats)
	})

	server := &http.Server{
		Addr:    ":8082",
		Handler: r,
	}

	go func() {
		log.Println("🚀 Scanner Service on :8082")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = server.Shutdown(ctxShutdown)
	log.Println("✅ Scanner service shutdown complete")
}
