package ticket_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventhub/internal/auth"
	"eventhub/internal/models"
	tickets "eventhub/internal/tickets/service"
	"eventhub/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
}

func NewHandler(ticketService *tickets.TicketService) *Handler {
	return &Handler{TicketService: ticketService}
}

// BookTicket handles POST /api/tickets with body {"eventId": "..."}.
func (h *Handler) BookTicket(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	var req struct {
		EventID string `json:"eventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation))
		return
	}
	if req.EventID == "" {
		utils.WriteError(w, fmt.Errorf("%w: eventId is required", models.ErrValidation))
		return
	}

	ticket, err := h.TicketService.BookTicket(r.Context(), userID, req.EventID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, ticket)
}

// ListMyTickets handles GET /api/tickets, scoped to the caller.
func (h *Handler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	ticketRows, err := h.TicketService.GetTicketsByUser(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ticketRows)
}

// CancelTicket handles POST /api/tickets/{ticketID}/cancel.
func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	if err := h.TicketService.CancelTicket(r.Context(), userID, ticketID); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket cancelled successfully", nil))
}

// CheckIn handles POST /api/tickets/checkin with body
// {"encrypted_qr": "..."}. Only the event owner may scan tickets.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	var req struct {
		EncryptedQR string `json:"encrypted_qr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation))
		return
	}
	if req.EncryptedQR == "" {
		utils.WriteError(w, fmt.Errorf("%w: encrypted_qr is required", models.ErrValidation))
		return
	}

	ticket, err := h.TicketService.CheckIn(r.Context(), userID, req.EncryptedQR)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Check-in successful", ticket))
}
