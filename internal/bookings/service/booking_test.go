package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/client"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/events"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/retry"
)

type mockBookingRepository struct {
	CreateFunc          func(ctx context.Context, booking *model.Booking) error
	FindByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	FindByRequestIDFunc func(ctx context.Context, requestID string) (*model.Booking, error)
	UpdateStatusFunc    func(ctx context.Context, id, status string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return m.CreateFunc(ctx, booking)
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockBookingRepository) FindByRequestID(ctx context.Context, requestID string) (*model.Booking, error) {
	return m.FindByRequestIDFunc(ctx, requestID)
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return m.UpdateStatusFunc(ctx, id, status)
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockGateway struct {
	HoldFunc    func(ctx context.Context, roomID string, req client.HoldRequest, correlationID string) (*model.RoomReservationLock, error)
	ConfirmFunc func(ctx context.Context, roomID, requestID, correlationID string) error
	ReleaseFunc func(ctx context.Context, roomID, requestID, correlationID string) error
	ListFunc    func(ctx context.Context) ([]model.RoomView, error)

	holds    int
	confirms int
	releases int
}

func (m *mockGateway) Hold(ctx context.Context, roomID string, req client.HoldRequest, correlationID string) (*model.RoomReservationLock, error) {
	m.holds++
	if m.HoldFunc != nil {
		return m.HoldFunc(ctx, roomID, req, correlationID)
	}
	return &model.RoomReservationLock{RequestID: req.RequestID, RoomID: roomID, Status: model.LockStatusHeld}, nil
}

func (m *mockGateway) Confirm(ctx context.Context, roomID, requestID, correlationID string) error {
	m.confirms++
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, roomID, requestID, correlationID)
	}
	return nil
}

func (m *mockGateway) Release(ctx context.Context, roomID, requestID, correlationID string) error {
	m.releases++
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, roomID, requestID, correlationID)
	}
	return nil
}

func (m *mockGateway) ListRooms(ctx context.Context) ([]model.RoomView, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

type mockPublisher struct {
	events []string
}

func (m *mockPublisher) PublishBookingEvent(ctx context.Context, eventType string, event events.BookingEvent) error {
	m.events = append(m.events, eventType)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		HotelCallTimeout: time.Second,
		HotelRetry: retry.Policy{
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		},
		Log: logger.New(logger.Config{Level: "error", Service: "bookings-test"}),
	}
}

func validBooking() *model.Booking {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return &model.Booking{
		RequestID: "req-1",
		UserID:    "user-1",
		RoomID:    "room-1",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 3),
	}
}

func newRepoWithStore() (*mockBookingRepository, map[string]*model.Booking) {
	store := make(map[string]*model.Booking)
	repo := &mockBookingRepository{
		CreateFunc: func(ctx context.Context, booking *model.Booking) error {
			if _, ok := store[booking.RequestID]; ok {
				return bookingserrors.ErrDuplicateRequest
			}
			booking.ID = "booking-" + booking.RequestID
			copied := *booking
			store[booking.RequestID] = &copied
			return nil
		},
		FindByRequestIDFunc: func(ctx context.Context, requestID string) (*model.Booking, error) {
			if b, ok := store[requestID]; ok {
				return b, nil
			}
			return nil, bookingserrors.ErrNotFound
		},
		FindByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			for _, b := range store {
				if b.ID == id {
					return b, nil
				}
			}
			return nil, bookingserrors.ErrNotFound
		},
		UpdateStatusFunc: func(ctx context.Context, id, status string) error {
			for _, b := range store {
				if b.ID == id {
					if b.Terminal() {
						return bookingserrors.ErrTerminalStatus
					}
					b.Status = status
					return nil
				}
			}
			return bookingserrors.ErrNotFound
		},
	}
	return repo, store
}

func TestCreateBookingConfirms(t *testing.T) {
	repo, store := newRepoWithStore()
	gateway := &mockGateway{}
	publisher := &mockPublisher{}

	svc := NewBookingService(repo, gateway, publisher, testConfig())
	result, err := svc.CreateBooking(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != model.BookingStatusConfirmed {
		t.Errorf("expected confirmed, got %s", result.Status)
	}
	if result.CorrelationID == "" {
		t.Error("expected a correlation id on the booking")
	}
	if gateway.holds != 1 || gateway.confirms != 1 {
		t.Errorf("expected one hold and one confirm, got %d/%d", gateway.holds, gateway.confirms)
	}
	if gateway.releases != 0 {
		t.Errorf("confirmed saga must not release, got %d", gateway.releases)
	}
	if stored := store["req-1"]; stored == nil || stored.Status != model.BookingStatusConfirmed {
		t.Error("terminal status not persisted")
	}
	if len(publisher.events) != 1 || publisher.events[0] != events.TypeBookingConfirmed {
		t.Errorf("expected one confirmed event, got %v", publisher.events)
	}
}

func TestCreateBookingReplaySkipsSaga(t *testing.T) {
	repo, _ := newRepoWithStore()
	gateway := &mockGateway{}

	svc := NewBookingService(repo, gateway, &mockPublisher{}, testConfig())

	first, err := svc.CreateBooking(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	replay, err := svc.CreateBooking(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if replay.ID != first.ID {
		t.Errorf("replay returned a different booking: %s vs %s", replay.ID, first.ID)
	}
	if gateway.holds != 1 {
		t.Errorf("replay must not reserve again, got %d holds", gateway.holds)
	}
}

func TestCreateBookingHoldConflictCancels(t *testing.T) {
	repo, store := newRepoWithStore()
	gateway := &mockGateway{
		HoldFunc: func(ctx context.Context, roomID string, req client.HoldRequest, correlationID string) (*model.RoomReservationLock, error) {
			return nil, retry.Permanent(apperrors.Conflict("dates overlap"))
		},
	}
	publisher := &mockPublisher{}

	svc := NewBookingService(repo, gateway, publisher, testConfig())
	result, err := svc.CreateBooking(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("a cancelled saga is a normal outcome, got error: %v", err)
	}

	if result.Status != model.BookingStatusCancelled {
		t.Errorf("expected cancelled, got %s", result.Status)
	}
	if gateway.holds != 1 {
		t.Errorf("conflicts are definitive, expected one hold attempt, got %d", gateway.holds)
	}
	if gateway.releases != 0 {
		t.Errorf("nothing was held, expected no release, got %d", gateway.releases)
	}
	if store["req-1"].Status != model.BookingStatusCancelled {
		t.Error("cancelled status not persisted")
	}
	if len(publisher.events) != 1 || publisher.events[0] != events.TypeBookingCancelled {
		t.Errorf("expected one cancelled event, got %v", publisher.events)
	}
}

func TestCreateBookingConfirmFailureReleasesHold(t *testing.T) {
	repo, _ := newRepoWithStore()
	gateway := &mockGateway{
		ConfirmFunc: func(ctx context.Context, roomID, requestID, correlationID string) error {
			return retry.Permanent(apperrors.InvalidInput("confirm rejected"))
		},
	}

	svc := NewBookingService(repo, gateway, &mockPublisher{}, testConfig())
	result, err := svc.CreateBooking(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != model.BookingStatusCancelled {
		t.Errorf("expected cancelled, got %s", result.Status)
	}
	if gateway.releases != 1 {
		t.Errorf("expected exactly one compensating release, got %d", gateway.releases)
	}
}

func TestCreateBookingRetriesTransientHoldFailures(t *testing.T) {
	repo, _ := newRepoWithStore()
	attempts := 0
	gateway := &mockGateway{
		HoldFunc: func(ctx context.Context, roomID string, req client.HoldRequest, correlationID string) (*model.RoomReservationLock, error) {
			attempts++
			if attempts < 3 {
				return nil, apperrors.Unavailable("hotel service", errors.New("connection refused"))
			}
			return &model.RoomReservationLock{RequestID: req.RequestID, Status: model.LockStatusHeld}, nil
		},
	}

	svc := NewBookingService(repo, gateway, &mockPublisher{}, testConfig())
	result, err := svc.CreateBooking(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != model.BookingStatusConfirmed {
		t.Errorf("expected confirmed after transient failures, got %s", result.Status)
	}
	if attempts != 3 {
		t.Errorf("expected hold to be retried to success, got %d attempts", attempts)
	}
}

func TestCreateBookingRejectsInvalidDates(t *testing.T) {
	repo, _ := newRepoWithStore()
	gateway := &mockGateway{}

	svc := NewBookingService(repo, gateway, &mockPublisher{}, testConfig())

	booking := validBooking()
	booking.EndDate = booking.StartDate
	_, err := svc.CreateBooking(context.Background(), booking)
	if err == nil {
		t.Fatal("expected validation error for empty date range")
	}
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation code, got %v", err)
	}
	if gateway.holds != 0 {
		t.Error("invalid input must not reach the hotel service")
	}
}

func TestGetRoomSuggestionsOrdersByPopularity(t *testing.T) {
	repo, _ := newRepoWithStore()
	gateway := &mockGateway{
		ListFunc: func(ctx context.Context) ([]model.RoomView, error) {
			return []model.RoomView{
				{ID: "a", Number: "101", TimesBooked: 2},
				{ID: "c", Number: "103", TimesBooked: 1},
				{ID: "b", Number: "102", TimesBooked: 1},
			}, nil
		},
	}

	svc := NewBookingService(repo, gateway, &mockPublisher{}, testConfig())
	rooms, err := svc.GetRoomSuggestions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"b", "c", "a"}
	if len(rooms) != len(wantOrder) {
		t.Fatalf("expected %d rooms, got %d", len(wantOrder), len(rooms))
	}
	for i, want := range wantOrder {
		if rooms[i].ID != want {
			t.Errorf("position %d: expected room %s, got %s", i, want, rooms[i].ID)
		}
	}
}
