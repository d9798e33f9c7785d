package event_api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eventhub/internal/auth"
	"eventhub/internal/config"
	eventdb "eventhub/internal/events/db"
	events "eventhub/internal/events/service"
	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/utils"
)

type Handler struct {
	EventService *events.EventService
	Upload       config.UploadConfig
	Log          *logger.Logger
}

func NewHandler(eventService *events.EventService, upload config.UploadConfig, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Upload: upload, Log: log}
}

// ListEvents handles GET /api/events?category=&search=&sort=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := eventdb.ListFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Sort:     r.URL.Query().Get("sort"),
	}

	eventRows, err := h.EventService.ListEvents(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, eventRows)
}

// GetEvent handles GET /api/events/{eventID}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

// CreateEvent handles POST /api/events. The body is either JSON or a
// multipart form with an optional image file.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	input, err := h.decodeEventInput(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	event, err := h.EventService.CreateEvent(r.Context(), userID, *input)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /api/events/{eventID}, owner only.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	input, err := h.decodeEventInput(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), userID, chi.URLParam(r, "eventID"), *input)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/events/{eventID}, owner only.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteError(w, models.ErrUnauthenticated)
		return
	}

	if err := h.EventService.DeleteEvent(r.Context(), userID, chi.URLParam(r, "eventID")); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event deleted successfully", nil))
}

// GetAttendees handles GET /api/events/{eventID}/attendees.
func (h *Handler) GetAttendees(w http.ResponseWriter, r *http.Request) {
	view, err := h.EventService.GetAttendees(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) decodeEventInput(r *http.Request) (*events.EventInput, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.decodeMultipartInput(r)
	}

	var input events.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return nil, fmt.Errorf("%w: invalid request body", models.ErrValidation)
	}
	return &input, nil
}

func (h *Handler) decodeMultipartInput(r *http.Request) (*events.EventInput, error) {
	if err := r.ParseMultipartForm(h.Upload.MaxFileSize); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form", models.ErrValidation)
	}

	input := events.EventInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Location:    r.FormValue("location"),
		EventTime:   r.FormValue("eventTime"),
	}
	if v := r.FormValue("maxAttendees"); v != "" {
		max, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: maxAttendees must be a number", models.ErrValidation)
		}
		input.MaxAttendees = max
	}
	if v := r.FormValue("eventDate"); v != "" {
		date, err := time.Parse(time.RFC3339, v)
		if err != nil {
			date, err = time.Parse("2006-01-02", v)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: eventDate must be RFC3339 or YYYY-MM-DD", models.ErrValidation)
		}
		input.EventDate = date
	}

	image, err := h.saveUploadedImage(r)
	if err != nil {
		return nil, err
	}
	input.Image = image

	return &input, nil
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// saveUploadedImage stores the optional "image" form file under the
// uploads dir and returns its public path.
func (h *Handler) saveUploadedImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", fmt.Errorf("%w: invalid image upload", models.ErrValidation)
	}
	defer file.Close()

	if header.Size > h.Upload.MaxFileSize {
		return "", fmt.Errorf("%w: image exceeds size limit", models.ErrValidation)
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: only JPEG, PNG and GIF images are allowed", models.ErrValidation)
	}

	if err := os.MkdirAll(h.Upload.Dir, 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.Upload.Dir, name))
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	return "/uploads/" + name, nil
}
