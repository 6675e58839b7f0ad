package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"roombook/internal/bookings/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/:id", h.GetByID)
	router.GET("/api/v1/rooms/suggestions", h.Suggestions)
}

type createBookingRequest struct {
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	RoomID    string    `json:"room_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	booking := &model.Booking{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		RoomID:    req.RoomID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	result, err := h.service.CreateBooking(r.Context(), booking)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// A cancelled saga still created a booking record; the status field
	// tells the caller how it ended.
	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("Failed to write booking response", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("Failed to write booking response", "error", err)
	}
}

func (h *BookingHandler) Suggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.GetRoomSuggestions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("Failed to write suggestions response", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("Failed to write error response", "error", writeErr)
	}
}
