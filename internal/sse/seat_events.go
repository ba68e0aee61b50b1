package sse

import (
	"context"
	"sync"

	"cinema-ticketing/internal/models"
)

// SeatEventEmitter manages SSE connections and broadcasts seat-map updates
// per showtime. Buyers on the seat-selection screen subscribe to their
// showtime and receive the full reserved list after every committed
// booking.
type SeatEventEmitter struct {
	// key: showtimeID, value: slice of client channels
	clients     map[string][]chan models.SeatUpdate
	clientMutex sync.RWMutex
}

func NewSeatEventEmitter() *SeatEventEmitter {
	return &SeatEventEmitter{
		clients: make(map[string][]chan models.SeatUpdate),
	}
}

// Subscribe adds a client to a showtime's update feed. The channel is
// closed and removed when ctx is done.
func (e *SeatEventEmitter) Subscribe(ctx context.Context, showtimeID string) chan models.SeatUpdate {
	clientChan := make(chan models.SeatUpdate, 10)

	e.clientMutex.Lock()
	e.clients[showtimeID] = append(e.clients[showtimeID], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(showtimeID, clientChan)
	}()

	return clientChan
}

// Emit broadcasts an update to every client watching the showtime.
func (e *SeatEventEmitter) Emit(update models.SeatUpdate) {
	e.clientMutex.RLock()
	clients := e.clients[update.ShowtimeID]
	e.clientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send so one slow client cannot stall the emitter.
		select {
		case clientChan <- update:
		default:
		}
	}
}

func (e *SeatEventEmitter) removeClient(showtimeID string, clientChan chan models.SeatUpdate) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[showtimeID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[showtimeID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[showtimeID]) == 0 {
		delete(e.clients, showtimeID)
	}
}

// ClientCount returns the number of clients watching a showtime.
func (e *SeatEventEmitter) ClientCount(showtimeID string) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[showtimeID])
}
