package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"cinema-ticketing/internal/auth"
	"cinema-ticketing/internal/booking"
	booking_api "cinema-ticketing/internal/booking/api"
	booking_db "cinema-ticketing/internal/booking/db"
	rediswrap "cinema-ticketing/internal/booking/redis"
	"cinema-ticketing/internal/config"
	"cinema-ticketing/internal/logger"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/qr"
	"cinema-ticketing/internal/sse"
)

// Lean booking-only binary for environments where the full service (movies,
// showtimes, admin) runs elsewhere. No Kafka: events stay local.
type noopPublisher struct{}

func (noopPublisher) PublishBookingCreated(models.Booking) error  { return nil }
func (noopPublisher) PublishBookingRedeemed(models.Booking) error { return nil }

// gatewayIdentity trusts the upstream gateway's signature check and only
// lifts the subject claim into the request context.
func gatewayIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractTokenFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		userID, err := auth.ExtractUserIDFromJWT(token)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

func verifyConnections(ctx context.Context, cfg *config.Config) (*bun.DB, *redis.Client) {
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("[Database] Failed to open Postgres: %v", err)
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatalf("[Database] Failed to connect to Postgres: %v", err)
	}
	log.Println("[Database] Postgres connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("[Database] Redis connection error: %v", err)
	}
	log.Println("[Database] Redis connection successful")

	return bunDB, redisClient
}

func main() {
	_ = godotenv.Load()

	appLogger := logger.NewLogger()
	defer appLogger.Close()

	cfg := config.Load()
	ctx := context.Background()

	bunDB, redisClient := verifyConnections(ctx, cfg)
	defer bunDB.Close()
	defer redisClient.Close()

	service := booking.NewBookingService(
		&booking_db.DB{Bun: bunDB},
		rediswrap.NewRedis(redisClient, cfg.Redis.SeatCacheTTL),
		noopPublisher{},
		appLogger,
	)
	handler := &booking_api.Handler{
		BookingService: service,
		QR:             qr.NewQRGenerator(cfg.QR.SecretKey),
		Emitter:        sse.NewSeatEventEmitter(),
	}

	r := chi.NewRouter()
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(gatewayIdentity)
		r.Post("/", handler.CreateBooking)
		r.Get("/", handler.ListMyBookings)
		r.Get("/{bookingId}", handler.GetBooking)
		r.Get("/{bookingId}/qr", handler.GetBookingQR)
		r.Post("/{bookingId}/redeem", handler.RedeemBooking)
	})
	r.Route("/api/showtimes/{showtimeId}", func(r chi.Router) {
		r.Get("/seats", handler.GetReservedSeats)
		r.Get("/seats/stream", handler.StreamSeatUpdates)
	})

	server := &http.Server{
		Addr:    ":8081",
		Handler: r,
	}

	go func() {
		log.Println("🚀 Booking Service on :8081")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Println("✅ Booking service shutdown complete")
}
