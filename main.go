package main

import (
	"context"
	"database/sql"
	"fmt"
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
	booking_kafka "cinema-ticketing/internal/booking/kafka"
	rediswrap "cinema-ticketing/internal/booking/redis"
	"cinema-ticketing/internal/config"
	"cinema-ticketing/internal/database/migrations"
	"cinema-ticketing/internal/kafka"
	"cinema-ticketing/internal/logger"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/movie"
	movie_api "cinema-ticketing/internal/movie/api"
	movie_db "cinema-ticketing/internal/movie/db"
	"cinema-ticketing/internal/qr"
	"cinema-ticketing/internal/showtime"
	showtime_api "cinema-ticketing/internal/showtime/api"
	showtime_db "cinema-ticketing/internal/showtime/db"
	"cinema-ticketing/internal/sse"
)

// noopPublisher stands in for Kafka when KAFKA_ENABLED=false, which keeps
// local development possible without a broker.
type noopPublisher struct{}

func (noopPublisher) PublishBookingCreated(models.Booking) error  { return nil }
func (noopPublisher) PublishBookingRedeemed(models.Booking) error { return nil }

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Cinema Ticketing Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()

	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("DATABASE", "Schema migrations applied")

	var publisher booking.Publisher = noopPublisher{}
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics()); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
		producer := booking_kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		publisher = producer
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		log.Warn("KAFKA", "Kafka disabled, booking events will not be published")
	}

	seatCache := rediswrap.NewRedis(redisClient, cfg.Redis.SeatCacheTTL)
	emitter := sse.NewSeatEventEmitter()
	qrGen := qr.NewQRGenerator(cfg.QR.SecretKey)

	bookingService := booking.NewBookingService(
		&booking_db.DB{Bun: bunDB},
		seatCache,
		publisher,
		log,
	)
	showtimeService := showtime.NewShowtimeService(&showtime_db.DB{Bun: bunDB}, log)
	movieService := movie.NewMovieService(&movie_db.DB{Bun: bunDB}, log)

	bookingHandler := &booking_api.Handler{
		BookingService: bookingService,
		QR:             qrGen,
		Emitter:        emitter,
	}
	showtimeHandler := &showtime_api.Handler{ShowtimeService: showtimeService}
	movieHandler := &movie_api.Handler{MovieService: movieService}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes: browsing needs no login ---
	r.Route("/api/movies", func(r chi.Router) {
		r.Get("/", movieHandler.ListMovies)
		r.Get("/{movieId}", movieHandler.GetMovie)
	})
	r.Route("/api/showtimes", func(r chi.Router) {
		r.Get("/", showtimeHandler.ListShowtimes)
		r.Get("/{showtimeId}", showtimeHandler.GetShowtime)
		r.Get("/{showtimeId}/seats", bookingHandler.GetReservedSeats)
		r.Get("/{showtimeId}/seats/stream", bookingHandler.StreamSeatUpdates)
	})
	log.Info("ROUTER", "Public browse endpoints registered under /api/movies and /api/showtimes")

	// --- Protected Routes: anything tied to a buyer or the venue staff ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))
		log.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.CreateBooking)
			r.Get("/", bookingHandler.ListMyBookings)
			r.Get("/{bookingId}", bookingHandler.GetBooking)
			r.Get("/{bookingId}/qr", bookingHandler.GetBookingQR)
			r.Post("/{bookingId}/redeem", bookingHandler.RedeemBooking)
		})
		log.Info("ROUTER", "Booking routes registered under /api/bookings")

		r.Route("/api/admin", func(r chi.Router) {
			r.Route("/movies", func(r chi.Router) {
				r.Post("/", movieHandler.CreateMovie)
				r.Put("/{movieId}", movieHandler.UpdateMovie)
				r.Delete("/{movieId}", movieHandler.DeleteMovie)
			})
			r.Route("/showtimes", func(r chi.Router) {
				r.Post("/", showtimeHandler.CreateShowtime)
				r.Post("/bulk", showtimeHandler.CreateShowtimesBulk)
				r.Put("/{showtimeId}", showtimeHandler.UpdateShowtime)
				r.Delete("/{showtimeId}", showtimeHandler.DeleteShowtime)
			})
		})
		log.Info("ROUTER", "Admin routes registered under /api/admin")
	})

	// WriteTimeout stays zero: the seat-update stream holds its response
	// open for as long as the buyer watches the seat map.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Cinema Ticketing Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Cinema Ticketing Service shutdown complete")
	}
}
