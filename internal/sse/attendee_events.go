package sse

import (
	"context"
	"sync"

	"eventhub/internal/models"
)

// AttendeeEventEmitter fans attendance updates out to connected
// viewers, keyed by event id. Delivery is best effort: a viewer whose
// buffer is full simply misses that update and catches up on the next
// one or by pulling current stats.
type AttendeeEventEmitter struct {
	clients     map[string][]chan models.AttendeeUpdate
	clientMutex sync.RWMutex
}

func NewAttendeeEventEmitter() *AttendeeEventEmitter {
	return &AttendeeEventEmitter{
		clients: make(map[string][]chan models.AttendeeUpdate),
	}
}

// SubscribeToEvent adds a viewer to an event's update stream. The
// subscription is removed when ctx is cancelled.
func (e *AttendeeEventEmitter) SubscribeToEvent(ctx context.Context, eventID string) chan models.AttendeeUpdate {
	clientChan := make(chan models.AttendeeUpdate, 10)

	e.clientMutex.Lock()
	e.clients[eventID] = append(e.clients[eventID], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(eventID, clientChan)
	}()

	return clientChan
}

// Emit broadcasts an update to every viewer of the update's event.
// Updates for one event are emitted in commit order, so each viewer
// sees them in that order too.
func (e *AttendeeEventEmitter) Emit(update models.AttendeeUpdate) {
	// The read lock is held across the sends: removeClient closes
	// channels under the write lock, so no channel in view here can be
	// closed mid-send.
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	for _, clientChan := range e.clients[update.EventID] {
		// Non-blocking send so a slow viewer cannot stall the booking path.
		select {
		case clientChan <- update:
		default:
		}
	}
}

func (e *AttendeeEventEmitter) removeClient(eventID string, clientChan chan models.AttendeeUpdate) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

// ClientCount returns the number of viewers subscribed to an event.
func (e *AttendeeEventEmitter) ClientCount(eventID string) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[eventID])
}
