package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	hotelserrors "roombook/internal/hotels/errors"
	"roombook/internal/hotels/repository"
	"roombook/internal/hotels/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
)

type HotelService interface {
	HoldRoom(ctx context.Context, requestID, roomID string, startDate, endDate time.Time) (*model.RoomReservationLock, error)
	ConfirmHold(ctx context.Context, requestID string) (*model.RoomReservationLock, error)
	ReleaseHold(ctx context.Context, requestID string) (*model.RoomReservationLock, error)
	CountConfirmedBookings(ctx context.Context, roomID string) (int64, error)
	CreateHotel(ctx context.Context, hotel *model.Hotel) error
	CreateRoom(ctx context.Context, room *model.Room) error
	ListRoomViews(ctx context.Context) ([]model.RoomView, error)
}

type hotelService struct {
	lockRepo  repository.ReservationLockRepository
	roomRepo  repository.RoomRepository
	roomMutex repository.RoomMutex
	validator *validator.HotelValidator
	cfg       *config.Config
}

func NewHotelService(
	lockRepo repository.ReservationLockRepository,
	roomRepo repository.RoomRepository,
	roomMutex repository.RoomMutex,
	validator *validator.HotelValidator,
	cfg *config.Config,
) HotelService {
	return &hotelService{
		lockRepo:  lockRepo,
		roomRepo:  roomRepo,
		roomMutex: roomMutex,
		validator: validator,
		cfg:       cfg,
	}
}

// HoldRoom claims a room for [startDate, endDate). Idempotent on requestID:
// a replayed hold returns the existing lock without re-validating the range.
// The conflict scan and insert run inside the per-room exclusive section plus
// a transaction, so two concurrent overlapping holds cannot both pass the
// scan. The room's available flag is deliberately not consulted: it is an
// admin display flag, not an occupancy signal.
func (s *hotelService) HoldRoom(ctx context.Context, requestID, roomID string, startDate, endDate time.Time) (*model.RoomReservationLock, error) {
	if requestID == "" {
		return nil, apperrors.InvalidInput("request_id cannot be empty")
	}
	if roomID == "" {
		return nil, apperrors.InvalidInput("room_id cannot be empty")
	}
	if !endDate.After(startDate) {
		return nil, apperrors.InvalidInput("end_date must be after start_date")
	}

	existing, err := s.lockRepo.FindByRequestID(ctx, requestID)
	if err == nil {
		s.cfg.Log.Info("Hold replayed, returning existing lock",
			"request_id", requestID,
			"status", existing.Status,
		)
		return existing, nil
	}
	if !errors.Is(err, hotelserrors.ErrLockNotFound) {
		return nil, apperrors.Internal("Failed to check existing lock", err)
	}

	lock := &model.RoomReservationLock{
		RequestID: requestID,
		RoomID:    roomID,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    model.LockStatusHeld,
	}

	err = s.roomMutex.WithRoomLock(ctx, roomID, func(ctx context.Context) error {
		return s.lockRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.verifyNoOverlap(sessCtx, lock); err != nil {
				return err
			}
			if err := s.lockRepo.Create(sessCtx, lock); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					// Lost a race against a replay of the same requestId;
					// the winner's lock is the answer.
					return nil
				}
				return apperrors.Internal("Failed to create reservation lock", err)
			}
			return nil
		})
	})
	if err != nil {
		s.cfg.Log.Warn("Hold rejected",
			"request_id", requestID,
			"room_id", roomID,
			"error", err,
		)
		return nil, err
	}

	created, err := s.lockRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load created lock", err)
	}

	s.cfg.Log.Info("Room held",
		"request_id", requestID,
		"room_id", roomID,
		"start_date", startDate,
		"end_date", endDate,
	)
	return created, nil
}

// ConfirmHold transitions held -> confirmed and bumps the room's popularity
// counter. Confirming an already confirmed lock is a no-op; confirming a
// released or missing lock fails.
func (s *hotelService) ConfirmHold(ctx context.Context, requestID string) (*model.RoomReservationLock, error) {
	lock, err := s.findLock(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch lock.Status {
	case model.LockStatusConfirmed:
		return lock, nil
	case model.LockStatusReleased:
		return nil, apperrors.Conflict(hotelserrors.ErrLockReleased.Error())
	}

	if err := s.lockRepo.UpdateStatus(ctx, requestID, model.LockStatusHeld, model.LockStatusConfirmed); err != nil {
		if errors.Is(err, hotelserrors.ErrStaleTransition) {
			// Lost a race against another transition; the stored status is
			// the truth now.
			current, findErr := s.findLock(ctx, requestID)
			if findErr != nil {
				return nil, findErr
			}
			if current.Status == model.LockStatusConfirmed {
				return current, nil
			}
			return nil, apperrors.Conflict(hotelserrors.ErrLockReleased.Error())
		}
		return nil, apperrors.Internal("Failed to confirm hold", err)
	}
	lock.Status = model.LockStatusConfirmed

	if err := s.roomRepo.IncrementTimesBooked(ctx, lock.RoomID); err != nil {
		// Popularity is advisory; the confirm itself stands.
		s.cfg.Log.Warn("Failed to increment times booked",
			"room_id", lock.RoomID,
			"request_id", requestID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Hold confirmed", "request_id", requestID, "room_id", lock.RoomID)
	return lock, nil
}

// ReleaseHold transitions held -> released. Releasing an already released
// lock is a no-op; a missing lock fails, and so does releasing a confirmed
// lock: confirmed is terminal, the range stays reserved. Used both for saga
// compensation and the stale-hold sweep.
func (s *hotelService) ReleaseHold(ctx context.Context, requestID string) (*model.RoomReservationLock, error) {
	lock, err := s.findLock(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch lock.Status {
	case model.LockStatusReleased:
		return lock, nil
	case model.LockStatusConfirmed:
		return nil, apperrors.Conflict(hotelserrors.ErrLockConfirmed.Error())
	}

	if err := s.lockRepo.UpdateStatus(ctx, requestID, model.LockStatusHeld, model.LockStatusReleased); err != nil {
		if errors.Is(err, hotelserrors.ErrStaleTransition) {
			current, findErr := s.findLock(ctx, requestID)
			if findErr != nil {
				return nil, findErr
			}
			if current.Status == model.LockStatusReleased {
				return current, nil
			}
			return nil, apperrors.Conflict(hotelserrors.ErrLockConfirmed.Error())
		}
		return nil, apperrors.Internal("Failed to release hold", err)
	}
	lock.Status = model.LockStatusReleased

	s.cfg.Log.Info("Hold released", "request_id", requestID, "room_id", lock.RoomID)
	return lock, nil
}

func (s *hotelService) CountConfirmedBookings(ctx context.Context, roomID string) (int64, error) {
	if roomID == "" {
		return 0, apperrors.InvalidInput("room_id cannot be empty")
	}
	count, err := s.lockRepo.CountByRoomAndStatus(ctx, roomID, model.LockStatusConfirmed)
	if err != nil {
		return 0, apperrors.Internal("Failed to count confirmed bookings", err)
	}
	return count, nil
}

func (s *hotelService) CreateHotel(ctx context.Context, hotel *model.Hotel) error {
	hotel.Name = sanitizer.NormalizeName(hotel.Name)
	hotel.City = sanitizer.NormalizeCity(hotel.City)
	if err := s.validator.ValidateHotel(hotel); err != nil {
		return apperrors.Validation("Hotel validation failed", map[string]any{"error": err.Error()})
	}
	if err := s.roomRepo.CreateHotel(ctx, hotel); err != nil {
		return apperrors.Internal("Failed to create hotel", err)
	}
	s.cfg.Log.Info("Hotel created", "id", hotel.ID, "name", hotel.Name, "city", hotel.City)
	return nil
}

func (s *hotelService) CreateRoom(ctx context.Context, room *model.Room) error {
	room.Number = sanitizer.NormalizeRoomNumber(room.Number)
	if err := s.validator.ValidateRoom(room); err != nil {
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}
	if err := s.roomRepo.CreateRoom(ctx, room); err != nil {
		return apperrors.Internal("Failed to create room", err)
	}
	s.cfg.Log.Info("Room created", "id", room.ID, "number", room.Number, "hotel_id", room.HotelID)
	return nil
}

// ListRoomViews returns the popularity projection for every room, sorted by
// room id so the output is deterministic for the same data.
func (s *hotelService) ListRoomViews(ctx context.Context) ([]model.RoomView, error) {
	rooms, err := s.roomRepo.FindAllRooms(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list rooms", err)
	}

	views := make([]model.RoomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, model.RoomView{
			ID:          room.ID,
			Number:      room.Number,
			TimesBooked: room.TimesBooked,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views, nil
}

// --- Helpers ---

func (s *hotelService) findLock(ctx context.Context, requestID string) (*model.RoomReservationLock, error) {
	if requestID == "" {
		return nil, apperrors.InvalidInput("request_id cannot be empty")
	}
	lock, err := s.lockRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, hotelserrors.ErrLockNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation lock", requestID)
		}
		return nil, apperrors.Internal("Failed to find reservation lock", err)
	}
	return lock, nil
}

// verifyNoOverlap enforces the no-overlap invariant over held and confirmed
// locks of the candidate's room, with half-open [start, end) semantics.
func (s *hotelService) verifyNoOverlap(ctx context.Context, candidate *model.RoomReservationLock) error {
	existing, err := s.lockRepo.FindActiveByRoom(ctx, candidate.RoomID)
	if err != nil {
		return apperrors.Internal("Failed to scan existing locks", err)
	}

	for _, lock := range existing {
		if lock.RequestID == candidate.RequestID {
			continue
		}
		if model.Overlaps(lock.StartDate, lock.EndDate, candidate.StartDate, candidate.EndDate) {
			return apperrors.Conflict(fmt.Sprintf(
				"Room is already reserved for an overlapping range (%s - %s)",
				lock.StartDate.Format(time.DateOnly),
				lock.EndDate.Format(time.DateOnly),
			))
		}
	}
	return nil
}
