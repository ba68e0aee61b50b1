package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShowtimeNotFound means the referenced showtime id does not exist.
	ErrShowtimeNotFound = errors.New("showtime not found")

	// ErrShowtimeExpired means the showtime's scheduled start had already
	// passed when the transaction ran.
	ErrShowtimeExpired = errors.New("showtime has already started")

	// ErrBookingNotFound means a redemption or lookup referenced a
	// nonexistent booking id.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAlreadyRedeemed signals a second redemption attempt. The booking
	// record is unchanged; callers treat this as a soft condition.
	ErrAlreadyRedeemed = errors.New("booking already redeemed")

	// ErrStorageUnavailable wraps infrastructure failures from the backing
	// store. The caller may retry the identical request.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SeatConflictError reports the specific seats a concurrent booking took
// first. The buyer must re-fetch availability and reselect; retrying the
// same seat set will fail again.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat(s) already reserved: %s", strings.Join(e.Seats, ", "))
}

// AsSeatConflict unwraps err into a SeatConflictError if it is one.
func AsSeatConflict(err error) (*SeatConflictError, bool) {
	var sc *SeatConflictError
	if errors.As(err, &sc) {
		return sc, true
	}
	return nil, false
}
