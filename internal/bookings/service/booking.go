package service

import (
	"context"
	"errors"
	"sort"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/saga"
	"roombook/internal/bookings/validator"
	"roombook/pkg/client"
	"roombook/pkg/config"
	"roombook/pkg/correlation"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/events"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/retry"
	"roombook/pkg/sanitizer"
)

type BookingService interface {
	CreateBooking(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetRoomSuggestions(ctx context.Context) ([]model.RoomView, error)
}

// HotelGateway is the slice of the hotel client the orchestrator needs.
type HotelGateway interface {
	Hold(ctx context.Context, roomID string, req client.HoldRequest, correlationID string) (*model.RoomReservationLock, error)
	Confirm(ctx context.Context, roomID, requestID, correlationID string) error
	Release(ctx context.Context, roomID, requestID, correlationID string) error
	ListRooms(ctx context.Context) ([]model.RoomView, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	gateway   HotelGateway
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	log       *logger.Logger
}

func NewBookingService(repo repository.BookingRepository, gateway HotelGateway, publisher events.Publisher, cfg *config.Config) BookingService {
	return &bookingService{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		validator: validator.NewBookingValidator(cfg.Log),
		cfg:       cfg,
		log:       cfg.Log,
	}
}

// CreateBooking runs the reservation saga for one request. The booking is
// persisted as pending before any remote call, then driven to confirmed or
// cancelled by the saga outcome. A replayed requestId returns the stored
// booking without touching the hotel service again, so retried submissions
// reserve the room at most once.
//
// A cancelled outcome is a normal return, not an error: the caller reads the
// terminal status off the returned booking.
func (s *bookingService) CreateBooking(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	booking.RequestID = sanitizer.NormalizeID(booking.RequestID)
	booking.UserID = sanitizer.NormalizeID(booking.UserID)
	booking.Status = model.BookingStatusPending

	if err := s.validator.ValidateBooking(booking); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]any, len(verrs))
			for _, ve := range verrs {
				details[ve.Field] = ve.Message
			}
			return nil, apperrors.Validation("Booking validation failed", details)
		}
		return nil, apperrors.Internal("validation error", err)
	}

	if existing, err := s.repo.FindByRequestID(ctx, booking.RequestID); err == nil {
		s.log.Info("Replayed booking request, returning stored outcome",
			"request_id", booking.RequestID,
			"booking_id", existing.ID,
			"status", existing.Status,
		)
		return existing, nil
	} else if !errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, apperrors.Internal("failed to check for existing booking", err)
	}

	ctx, correlationID := correlation.EnsureID(ctx)
	booking.CorrelationID = correlationID

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateRequest) {
			// Lost a race against a concurrent submission of the same
			// requestId. The winner owns the saga; hand back its booking.
			if existing, findErr := s.repo.FindByRequestID(ctx, booking.RequestID); findErr == nil {
				return existing, nil
			}
			return nil, apperrors.Conflict("A booking with this request ID is already being processed")
		}
		return nil, apperrors.Internal("failed to persist booking", err)
	}

	log := s.log.WithCorrelation(correlationID)
	log.Info("Starting reservation saga",
		"booking_id", booking.ID,
		"request_id", booking.RequestID,
		"room_id", booking.RoomID,
	)

	execution := saga.NewExecution(
		s.retried(func(ctx context.Context) error {
			_, err := s.gateway.Hold(ctx, booking.RoomID, client.HoldRequest{
				RequestID: booking.RequestID,
				StartDate: booking.StartDate,
				EndDate:   booking.EndDate,
			}, correlationID)
			return err
		}),
		s.retried(func(ctx context.Context) error {
			return s.gateway.Confirm(ctx, booking.RoomID, booking.RequestID, correlationID)
		}),
		s.retried(func(ctx context.Context) error {
			return s.gateway.Release(ctx, booking.RoomID, booking.RequestID, correlationID)
		}),
		log,
	)

	terminal := execution.Run(ctx)

	switch terminal {
	case saga.StateConfirmed:
		booking.Status = model.BookingStatusConfirmed
	default:
		booking.Status = model.BookingStatusCancelled
	}

	if err := s.repo.UpdateStatus(ctx, booking.ID, booking.Status); err != nil {
		if errors.Is(err, bookingserrors.ErrTerminalStatus) {
			log.Warn("Booking already terminal, keeping stored status", "booking_id", booking.ID)
		} else {
			return nil, apperrors.Internal("failed to record saga outcome", err)
		}
	}

	if cause := execution.Cause(); cause != nil {
		log.Info("Reservation saga cancelled",
			"booking_id", booking.ID,
			"cause", cause.Error(),
		)
	} else {
		log.Info("Reservation saga confirmed", "booking_id", booking.ID)
	}

	s.publishOutcome(ctx, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("booking", id)
		}
		return nil, apperrors.Internal("failed to fetch booking", err)
	}
	return booking, nil
}

// GetRoomSuggestions returns rooms ordered from least to most booked, with
// room ID as the tiebreaker so the ordering is stable across calls.
func (s *bookingService) GetRoomSuggestions(ctx context.Context) ([]model.RoomView, error) {
	rooms, err := retryListRooms(ctx, s.cfg.HotelRetry, s.gateway)
	if err != nil {
		return nil, err
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].TimesBooked != rooms[j].TimesBooked {
			return rooms[i].TimesBooked < rooms[j].TimesBooked
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

// retried binds the hotel call timeout and retry policy around one remote
// operation, in the shape the saga expects.
func (s *bookingService) retried(op func(ctx context.Context) error) saga.Operation {
	return func(ctx context.Context) error {
		return retry.Do(ctx, s.cfg.HotelRetry, func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, s.cfg.HotelCallTimeout)
			defer cancel()
			return op(callCtx)
		})
	}
}

func retryListRooms(ctx context.Context, policy retry.Policy, gateway HotelGateway) ([]model.RoomView, error) {
	var rooms []model.RoomView
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var listErr error
		rooms, listErr = gateway.ListRooms(ctx)
		return listErr
	})
	return rooms, err
}

func (s *bookingService) publishOutcome(ctx context.Context, booking *model.Booking) {
	if s.publisher == nil {
		return
	}

	eventType := events.TypeBookingConfirmed
	if booking.Status == model.BookingStatusCancelled {
		eventType = events.TypeBookingCancelled
	}

	err := s.publisher.PublishBookingEvent(ctx, eventType, events.BookingEvent{
		BookingID:     booking.ID,
		RequestID:     booking.RequestID,
		UserID:        booking.UserID,
		RoomID:        booking.RoomID,
		StartDate:     booking.StartDate,
		EndDate:       booking.EndDate,
		Status:        booking.Status,
		CorrelationID: booking.CorrelationID,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("Failed to publish booking event, continuing",
			"booking_id", booking.ID,
			"event_type", eventType,
			"error", err,
		)
	}
}
