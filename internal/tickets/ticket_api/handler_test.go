package ticket_api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/auth"
	"eventhub/internal/models"
	"eventhub/internal/tickets/lock"
	tickets "eventhub/internal/tickets/service"
	"eventhub/internal/tickets/ticket_api"
	"eventhub/internal/utils"
)

// apiStore is a minimal in-memory backend for exercising the HTTP
// surface; the booking engine's own tests cover the hard invariants.
type apiStore struct {
	mu      sync.Mutex
	events  map[string]*models.Event
	tickets map[string]*models.Ticket
	users   map[string]*models.User
}

func newAPIStore() *apiStore {
	return &apiStore{
		events:  make(map[string]*models.Event),
		tickets: make(map[string]*models.Ticket),
		users:   make(map[string]*models.User),
	}
}

func (s *apiStore) CreateTicket(_ context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *ticket
	s.tickets[ticket.ID] = &copied
	return nil
}

func (s *apiStore) GetTicketByID(_ context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (s *apiStore) GetActiveTicket(_ context.Context, eventID, userID string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.EventID == eventID && t.UserID == userID && t.Status == models.TicketActive {
			copied := *t
			return &copied, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (s *apiStore) GetTicketsByUser(_ context.Context, userID string) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ticket
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *apiStore) UpdateTicketStatus(_ context.Context, ticketID string, from, to models.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok || ticket.Status != from {
		return models.ErrTicketNotActive
	}
	ticket.Status = to
	return nil
}

func (s *apiStore) GetEventByID(_ context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *apiStore) AddAttendee(_ context.Context, eventID, userID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	if event.CurrentAttendees >= event.MaxAttendees {
		return nil, models.ErrCapacityExceeded
	}
	event.CurrentAttendees++
	copied := *event
	return &copied, nil
}

func (s *apiStore) RemoveAttendee(_ context.Context, eventID, userID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	if event.CurrentAttendees > 0 {
		event.CurrentAttendees--
	}
	copied := *event
	return &copied, nil
}

func (s *apiStore) AttendeeIDs(_ context.Context, eventID string) ([]string, error) {
	return nil, nil
}

func (s *apiStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func newTestRouter(store *apiStore) chi.Router {
	svc := tickets.NewTicketService(store, store, store, lock.NewLocalLocker(), nil, nil, nil, nil)
	h := ticket_api.NewHandler(svc)

	r := chi.NewRouter()
	r.Post("/api/tickets", h.BookTicket)
	r.Get("/api/tickets", h.ListMyTickets)
	r.Post("/api/tickets/{ticketID}/cancel", h.CancelTicket)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, target, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedEvent(store *apiStore, id string, capacity int) {
	store.events[id] = &models.Event{
		ID:           id,
		Title:        "Test Event",
		MaxAttendees: capacity,
		OwnerID:      "organizer",
	}
}

func TestBookTicketEndpoint(t *testing.T) {
	store := newAPIStore()
	seedEvent(store, "evt-1", 5)
	store.users["u1"] = &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{"eventId":"evt-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var ticket models.TicketWithDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.Equal(t, "evt-1", ticket.EventID)
	assert.Equal(t, models.TicketActive, ticket.Status)
	assert.True(t, strings.HasPrefix(ticket.TicketNumber, "TKT-"))
	require.NotNil(t, ticket.Event)
	assert.Equal(t, "Test Event", ticket.Event.Title)

	assert.Equal(t, 1, store.events["evt-1"].CurrentAttendees)
}

func TestBookTicketRequiresAuth(t *testing.T) {
	router := newTestRouter(newAPIStore())
	rec := doJSON(t, router, http.MethodPost, "/api/tickets", "", `{"eventId":"evt-1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookTicketValidation(t *testing.T) {
	router := newTestRouter(newAPIStore())

	rec := doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `not-json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookTicketErrorMapping(t *testing.T) {
	store := newAPIStore()
	seedEvent(store, "evt-full", 1)
	store.events["evt-full"].CurrentAttendees = 1
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{"eventId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{"eventId":"evt-full"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "fully booked")
}

func TestBookTicketDuplicateConflict(t *testing.T) {
	store := newAPIStore()
	seedEvent(store, "evt-1", 5)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{"eventId":"evt-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{"eventId":"evt-1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelTicketEndpoint(t *testing.T) {
	store := newAPIStore()
	seedEvent(store, "evt-1", 5)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{"eventId":"evt-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var ticket models.TicketWithDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))

	// another user can't cancel it
	rec = doJSON(t, router, http.MethodPost, "/api/tickets/"+ticket.ID+"/cancel", "u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/tickets/"+ticket.ID+"/cancel", "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.events["evt-1"].CurrentAttendees)

	// second cancel of the same ticket
	rec = doJSON(t, router, http.MethodPost, "/api/tickets/"+ticket.ID+"/cancel", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMyTicketsEndpoint(t *testing.T) {
	store := newAPIStore()
	seedEvent(store, "evt-1", 5)
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodGet, "/api/tickets", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	doJSON(t, router, http.MethodPost, "/api/tickets", "u1", `{"eventId":"evt-1"}`)

	rec = doJSON(t, router, http.MethodGet, "/api/tickets", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.TicketWithDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "evt-1", list[0].EventID)
}
