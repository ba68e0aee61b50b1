package showtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cinema-ticketing/internal/logger"
	"cinema-ticketing/internal/models"
	"cinema-ticketing/internal/seats"
	"cinema-ticketing/internal/showtime"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateShowtime(ctx context.Context, s models.Showtime) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockDBLayer) GetShowtimeByID(ctx context.Context, id string) (*models.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Showtime), args.Error(1)
}

func (m *MockDBLayer) ListShowtimes(ctx context.Context) ([]models.Showtime, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Showtime), args.Error(1)
}

func (m *MockDBLayer) ListShowtimesByMovie(ctx context.Context, movieID string) ([]models.Showtime, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Showtime), args.Error(1)
}

func (m *MockDBLayer) UpdateShowtime(ctx context.Context, s models.Showtime) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteShowtime(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDBLayer) ShowtimeExists(ctx context.Context, movieID, date, startTime string) (bool, error) {
	args := m.Called(ctx, movieID, date, startTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) CountBookings(ctx context.Context, showtimeID string) (int, error) {
	args := m.Called(ctx, showtimeID)
	return args.Int(0), args.Error(1)
}

func validPrices() seats.PriceMap {
	return seats.PriceMap{
		seats.CategoryClassic:  400,
		seats.CategoryPrime:    600,
		seats.CategorySuperior: 900,
	}
}

func TestCreateShowtime(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := showtime.NewShowtimeService(mockDB, logger.NewLogger())
	ctx := context.Background()

	date := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	mockDB.On("CreateShowtime", mock.Anything, mock.AnythingOfType("models.Showtime")).Return(nil)

	show, err := svc.Create(ctx, models.ShowtimeRequest{
		MovieID:   "movie-1",
		Date:      date,
		StartTime: "19:30",
		PriceMap:  validPrices(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, show.ShowtimeID)
	assert.NotNil(t, show.SeatsReserved)
	assert.Empty(t, show.SeatsReserved, "a new showtime starts with no reservations")

	mockDB.AssertExpectations(t)
}

func TestCreateShowtimeValidation(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := showtime.NewShowtimeService(mockDB, logger.NewLogger())
	ctx := context.Background()

	// Missing movie id
	_, err := svc.Create(ctx, models.ShowtimeRequest{Date: "2026-09-01", StartTime: "19:30", PriceMap: validPrices()})
	assert.Error(t, err)

	// Malformed date
	_, err = svc.Create(ctx, models.ShowtimeRequest{MovieID: "m1", Date: "01/09/2026", StartTime: "19:30", PriceMap: validPrices()})
	assert.Error(t, err)

	// Malformed time
	_, err = svc.Create(ctx, models.ShowtimeRequest{MovieID: "m1", Date: "2026-09-01", StartTime: "7pm", PriceMap: validPrices()})
	assert.Error(t, err)

	// Incomplete price map
	_, err = svc.Create(ctx, models.ShowtimeRequest{MovieID: "m1", Date: "2026-09-01", StartTime: "19:30", PriceMap: seats.PriceMap{seats.CategoryClassic: 400}})
	assert.Error(t, err)

	mockDB.AssertNotCalled(t, "CreateShowtime", mock.Anything, mock.Anything)
}

func TestCreateBulkDefaultsToSevenDays(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := showtime.NewShowtimeService(mockDB, logger.NewLogger())
	ctx := context.Background()

	start := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	mockDB.On("ShowtimeExists", mock.Anything, "movie-1", mock.Anything, "20:00").Return(false, nil)
	mockDB.On("CreateShowtime", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.CreateBulk(ctx, models.BulkShowtimeRequest{
		MovieID:   "movie-1",
		StartDate: start,
		StartTime: "20:00",
		PriceMap:  validPrices(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result.Created)
	assert.Equal(t, 0, result.Skipped)
	mockDB.AssertNumberOfCalls(t, "CreateShowtime", 7)
}

func TestCreateBulkSkipsDuplicatesAndPastDays(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := showtime.NewShowtimeService(mockDB, logger.NewLogger())
	ctx := context.Background()

	// A run starting two days ago: the first two days (and possibly today,
	// depending on the clock) are already past and get skipped without any
	// existence check.
	start := time.Now().AddDate(0, 0, -2).Format("2006-01-02")
	duplicateDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	mockDB.On("ShowtimeExists", mock.Anything, "movie-1", duplicateDate, "09:00").Return(true, nil)
	mockDB.On("ShowtimeExists", mock.Anything, "movie-1", mock.Anything, "09:00").Return(false, nil)
	mockDB.On("CreateShowtime", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.CreateBulk(ctx, models.BulkShowtimeRequest{
		MovieID:   "movie-1",
		StartDate: start,
		StartTime: "09:00",
		Days:      5,
		PriceMap:  validPrices(),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Created+result.Skipped, "every day is accounted for")
	assert.GreaterOrEqual(t, result.Skipped, 3, "two past days plus the duplicate")
}

func TestCreateBulkAbortsOnStorageError(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := showtime.NewShowtimeService(mockDB, logger.NewLogger())
	ctx := context.Background()

	start := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	mockDB.On("ShowtimeExists", mock.Anything, "movie-1", mock.Anything, "20:00").Return(false, nil)
	mockDB.On("CreateShowtime", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.CreateBulk(ctx, models.BulkShowtimeRequest{
		MovieID:   "movie-1",
		StartDate: start,
		StartTime: "20:00",
		Days:      3,
		PriceMap:  validPrices(),
	})
	assert.Error(t, err)
}

func TestUpdateShowtimeNeverTouchesReservations(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := showtime.NewShowtimeService(mockDB, logger.NewLogger())
	ctx := context.Background()

	existing := &models.Showtime{
		ShowtimeID:    "show-1",
		MovieID:       "movie-1",
		Date:          "2026-09-01",
		StartTime:     "19:30",
		PriceMap:      validPrices(),
		SeatsReserved: []string{"A1", "A2"},
	}
	mockDB.On("GetShowtimeByID", mock.Anything, "show-1").Return(existing, nil)
	mockDB.On("UpdateShowtime", mock.Anything, mock.MatchedBy(func(s models.Showtime) bool {
		return s.StartTime == "21:00" && len(s.SeatsReserved) == 2
	})).Return(nil)

	updated, err := svc.Update(ctx, "show-1", models.ShowtimeRequest{
		Date:      "2026-09-01",
		StartTime: "21:00",
		PriceMap:  validPrices(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, updated.SeatsReserved)
	mockDB.AssertExpectations(t)
}

func TestDeleteShowtimeBlockedByBookings(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := showtime.NewShowtimeService(mockDB, logger.NewLogger())
	ctx := context.Background()

	mockDB.On("GetShowtimeByID", mock.Anything, "show-1").Return(&models.Showtime{ShowtimeID: "show-1"}, nil)
	mockDB.On("CountBookings", mock.Anything, "show-1").Return(3, nil)

	err := svc.Delete(ctx, "show-1")
	assert.ErrorIs(t, err, showtime.ErrShowtimeHasBookings)
	mockDB.AssertNotCalled(t, "DeleteShowtime", mock.Anything, "show-1")

	mockDB.On("GetShowtimeByID", mock.Anything, "show-2").Return(&models.Showtime{ShowtimeID: "show-2"}, nil)
	mockDB.On("CountBookings", mock.Anything, "show-2").Return(0, nil)
	mockDB.On("DeleteShowtime", mock.Anything, "show-2").Return(nil)

	require.NoError(t, svc.Delete(ctx, "show-2"))
	mockDB.AssertExpectations(t)
}
