package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultSeatCacheTTL = 30 * time.Second

// Redis caches each showtime's reserved-seat list so the seat-map screen
// does not hammer the store. It is a read-side convenience only: the
// booking transaction always re-validates against the database, so a stale
// cache can never cause a double sell.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{Client: client, Logger: log.Default(), TTL: ttl}
}

func seatKey(showtimeID string) string {
	return "showtime_seats:" + showtimeID
}

// getSeatCacheTTL returns the configured cache TTL, falling back to the
// default when the zero value leaks through.
func (r *Redis) getSeatCacheTTL() time.Duration {
	if r.TTL <= 0 {
		return defaultSeatCacheTTL
	}
	return r.TTL
}

// GetReservedSeats returns the cached reserved list for a showtime. The
// second return value reports whether the cache had an entry.
func (r *Redis) GetReservedSeats(ctx context.Context, showtimeID string) ([]string, bool, error) {
	val, err := r.Client.Get(ctx, seatKey(showtimeID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var seats []string
	if err := json.Unmarshal([]byte(val), &seats); err != nil {
		// Corrupt entry: drop it rather than serve garbage.
		_ = r.Client.Del(ctx, seatKey(showtimeID)).Err()
		return nil, false, fmt.Errorf("corrupt seat cache entry for showtime %s: %w", showtimeID, err)
	}
	return seats, true, nil
}

// SetReservedSeats stores a showtime's reserved list with the configured TTL.
func (r *Redis) SetReservedSeats(ctx context.Context, showtimeID string, seats []string) error {
	payload, err := json.Marshal(seats)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, seatKey(showtimeID), payload, r.getSeatCacheTTL()).Err()
}

// InvalidateShowtime drops the cached list after a booking commits so the
// next read reflects the new reservation.
func (r *Redis) InvalidateShowtime(ctx context.Context, showtimeID string) error {
	return r.Client.Del(ctx, seatKey(showtimeID)).Err()
}
