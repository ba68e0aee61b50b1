package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/lib/pq"

	"cinema-ticketing/internal/booking"
	"cinema-ticketing/internal/booking/db"
	"cinema-ticketing/internal/models"
)

// TestConcurrentReservationIntegration runs the reservation transaction
// against a real Postgres container so the row lock actually serializes
// writers. Two buyers race for overlapping seats; exactly one may win.
func TestConcurrentReservationIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "cinema",
				"POSTGRES_PASSWORD": "cinema",
				"POSTGRES_DB":       "cinemadb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://cinema:cinema@%s:%s/cinemadb?sslmode=disable", host, port.Port())
	sqldb, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	require.NoError(t, bunDB.ResetModel(ctx, (*models.Showtime)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Booking)(nil)))

	d := &db.DB{Bun: bunDB}

	show := futureShowtime("show-race", nil)
	_, err = bunDB.NewInsert().Model(&show).Exec(ctx)
	require.NoError(t, err)

	const racers = 8
	contested := []string{"D5", "D6"}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := &models.Booking{
				BookingID:  fmt.Sprintf("booking-%d", i),
				UserID:     fmt.Sprintf("user-%d", i),
				ShowtimeID: "show-race",
				Seats:      contested,
				Status:     models.BookingStatusPaid,
				CreatedAt:  time.Now(),
			}
			errs[i] = d.ReserveAndBook(ctx, b)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		if err == nil {
			winners++
			continue
		}
		_, isConflict := booking.AsSeatConflict(err)
		assert.True(t, isConflict, "racer %d failed with unexpected error: %v", i, err)
	}
	assert.Equal(t, 1, winners, "exactly one racer may hold the contested seats")

	final, err := d.GetShowtimeByID(ctx, "show-race")
	require.NoError(t, err)
	assert.Equal(t, contested, final.SeatsReserved)

	count, err := bunDB.NewSelect().Model((*models.Booking)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
