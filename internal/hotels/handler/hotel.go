package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"roombook/internal/hotels/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

type HotelHandler struct {
	service service.HotelService
	log     *logger.Logger
}

func NewHotelHandler(service service.HotelService, log *logger.Logger) *HotelHandler {
	return &HotelHandler{
		service: service,
		log:     log,
	}
}

type holdRequest struct {
	RequestID string    `json:"request_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type transitionRequest struct {
	RequestID string `json:"request_id"`
}

func (h *HotelHandler) Hold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("id")

	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Hold", apperrors.InvalidInput("Invalid request body"))
		return
	}

	lock, err := h.service.HoldRoom(r.Context(), req.RequestID, roomID, req.StartDate, req.EndDate)
	if err != nil {
		h.writeError(w, "Hold", err)
		return
	}

	if err := httputil.WriteCreated(w, lock); err != nil {
		h.log.Error("failed to write created response", "handler", "Hold", "error", err)
	}
}

func (h *HotelHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Confirm", apperrors.InvalidInput("Invalid request body"))
		return
	}

	lock, err := h.service.ConfirmHold(r.Context(), req.RequestID)
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "error", err)
	}
}

func (h *HotelHandler) Release(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Release", apperrors.InvalidInput("Invalid request body"))
		return
	}

	lock, err := h.service.ReleaseHold(r.Context(), req.RequestID)
	if err != nil {
		h.writeError(w, "Release", err)
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "Release", "error", err)
	}
}

func (h *HotelHandler) ListRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	views, err := h.service.ListRoomViews(r.Context())
	if err != nil {
		h.writeError(w, "ListRooms", err)
		return
	}

	if err := httputil.WriteSuccess(w, views); err != nil {
		h.log.Error("failed to write success response", "handler", "ListRooms", "error", err)
	}
}

func (h *HotelHandler) CountConfirmed(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	count, err := h.service.CountConfirmedBookings(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "CountConfirmed", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"confirmed_bookings": count}); err != nil {
		h.log.Error("failed to write success response", "handler", "CountConfirmed", "error", err)
	}
}

func (h *HotelHandler) CreateHotel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var hotel model.Hotel
	if err := json.NewDecoder(r.Body).Decode(&hotel); err != nil {
		h.writeError(w, "CreateHotel", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.CreateHotel(r.Context(), &hotel); err != nil {
		h.writeError(w, "CreateHotel", err)
		return
	}

	if err := httputil.WriteCreated(w, hotel); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateHotel", "error", err)
	}
}

func (h *HotelHandler) CreateRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	room.Available = true
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		h.writeError(w, "CreateRoom", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.CreateRoom(r.Context(), &room); err != nil {
		h.writeError(w, "CreateRoom", err)
		return
	}

	if err := httputil.WriteCreated(w, room); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateRoom", "error", err)
	}
}

func (h *HotelHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *HotelHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rooms/:id/hold", h.Hold)
	router.POST("/api/v1/rooms/:id/confirm", h.Confirm)
	router.POST("/api/v1/rooms/:id/release", h.Release)
	router.GET("/api/v1/rooms/:id/confirmed-count", h.CountConfirmed)
	router.GET("/api/v1/hotels/rooms", h.ListRooms)
	router.POST("/api/v1/hotels", h.CreateHotel)
	router.POST("/api/v1/rooms", h.CreateRoom)
}
