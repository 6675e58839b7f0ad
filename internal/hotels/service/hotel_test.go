package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	hotelserrors "roombook/internal/hotels/errors"
	"roombook/internal/hotels/validator"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

// fakeLockRepository is an in-memory stand-in for the Mongo lock store with
// the same uniqueness behavior on request_id.
type fakeLockRepository struct {
	mu    sync.Mutex
	locks map[string]*model.RoomReservationLock
}

func newFakeLockRepository() *fakeLockRepository {
	return &fakeLockRepository{locks: make(map[string]*model.RoomReservationLock)}
}

func (f *fakeLockRepository) Create(ctx context.Context, lock *model.RoomReservationLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.locks[lock.RequestID]; ok {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	copied := *lock
	copied.CreatedAt = time.Now()
	f.locks[lock.RequestID] = &copied
	return nil
}

func (f *fakeLockRepository) FindByRequestID(ctx context.Context, requestID string) (*model.RoomReservationLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lock, ok := f.locks[requestID]; ok {
		copied := *lock
		return &copied, nil
	}
	return nil, hotelserrors.ErrLockNotFound
}

func (f *fakeLockRepository) FindActiveByRoom(ctx context.Context, roomID string) ([]*model.RoomReservationLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.RoomReservationLock
	for _, lock := range f.locks {
		if lock.RoomID == roomID && lock.Active() {
			copied := *lock
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeLockRepository) UpdateStatus(ctx context.Context, requestID, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, ok := f.locks[requestID]
	if !ok {
		return hotelserrors.ErrLockNotFound
	}
	if lock.Status != from {
		return hotelserrors.ErrStaleTransition
	}
	lock.Status = to
	return nil
}

func (f *fakeLockRepository) CountByRoomAndStatus(ctx context.Context, roomID, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, lock := range f.locks {
		if lock.RoomID == roomID && lock.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeLockRepository) FindStaleHeld(ctx context.Context, olderThan time.Time, limit int) ([]*model.RoomReservationLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.RoomReservationLock
	for _, lock := range f.locks {
		if lock.Status == model.LockStatusHeld && lock.CreatedAt.Before(olderThan) {
			copied := *lock
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeLockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type fakeRoomRepository struct {
	mu          sync.Mutex
	rooms       map[string]*model.Room
	timesBooked map[string]int64
}

func newFakeRoomRepository() *fakeRoomRepository {
	return &fakeRoomRepository{
		rooms:       make(map[string]*model.Room),
		timesBooked: make(map[string]int64),
	}
}

func (f *fakeRoomRepository) CreateHotel(ctx context.Context, hotel *model.Hotel) error {
	hotel.ID = "hotel-1"
	return nil
}

func (f *fakeRoomRepository) CreateRoom(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room.ID = "room-" + room.Number
	copied := *room
	f.rooms[room.ID] = &copied
	return nil
}

func (f *fakeRoomRepository) FindRoomByID(ctx context.Context, id string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[id]; ok {
		return room, nil
	}
	return nil, hotelserrors.ErrRoomNotFound
}

func (f *fakeRoomRepository) FindAllRooms(ctx context.Context) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Room
	for _, room := range f.rooms {
		copied := *room
		copied.TimesBooked = f.timesBooked[room.ID]
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRoomRepository) IncrementTimesBooked(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timesBooked[roomID]++
	return nil
}

// fakeRoomMutex serializes sections per room id like the advisory-lock
// document does.
type fakeRoomMutex struct {
	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

func newFakeRoomMutex() *fakeRoomMutex {
	return &fakeRoomMutex{rooms: make(map[string]*sync.Mutex)}
}

func (f *fakeRoomMutex) WithRoomLock(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	m, ok := f.rooms[roomID]
	if !ok {
		m = &sync.Mutex{}
		f.rooms[roomID] = m
	}
	f.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

func newTestService() (HotelService, *fakeLockRepository, *fakeRoomRepository) {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Service: "hotels-test"}),
	}
	lockRepo := newFakeLockRepository()
	roomRepo := newFakeRoomRepository()
	svc := NewHotelService(lockRepo, roomRepo, newFakeRoomMutex(), validator.NewHotelValidator(cfg.Log), cfg)
	return svc, lockRepo, roomRepo
}

func date(day int) time.Time {
	return time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC)
}

func TestHoldConflictOnOverlap(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4)); err != nil {
		t.Fatalf("first hold should succeed: %v", err)
	}

	_, err := svc.HoldRoom(ctx, "req-b", "room-301", date(3), date(6))
	if !apperrors.IsConflict(err) {
		t.Fatalf("overlapping hold on the same room must conflict, got %v", err)
	}

	if _, err := svc.HoldRoom(ctx, "req-c", "room-302", date(3), date(6)); err != nil {
		t.Fatalf("same dates on another room should succeed: %v", err)
	}
}

func TestHoldBackToBackDatesDoNotConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(3)); err != nil {
		t.Fatalf("first hold should succeed: %v", err)
	}
	if _, err := svc.HoldRoom(ctx, "req-b", "room-301", date(3), date(5)); err != nil {
		t.Fatalf("checkout day equals checkin day, must not conflict: %v", err)
	}
}

func TestHoldIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4))
	if err != nil {
		t.Fatalf("first hold should succeed: %v", err)
	}

	replay, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4))
	if err != nil {
		t.Fatalf("replayed hold should succeed: %v", err)
	}
	if replay.RequestID != first.RequestID || replay.Status != first.Status {
		t.Error("replayed hold should return the original lock")
	}
}

func TestReleasedHoldFreesTheRange(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4)); err != nil {
		t.Fatalf("hold should succeed: %v", err)
	}
	if _, err := svc.ReleaseHold(ctx, "req-a"); err != nil {
		t.Fatalf("release should succeed: %v", err)
	}

	if _, err := svc.HoldRoom(ctx, "req-b", "room-301", date(2), date(5)); err != nil {
		t.Fatalf("released range must be free for new holds: %v", err)
	}
}

func TestConfirmTransitions(t *testing.T) {
	svc, _, roomRepo := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4)); err != nil {
		t.Fatalf("hold should succeed: %v", err)
	}

	lock, err := svc.ConfirmHold(ctx, "req-a")
	if err != nil {
		t.Fatalf("confirm should succeed: %v", err)
	}
	if lock.Status != model.LockStatusConfirmed {
		t.Errorf("expected confirmed, got %s", lock.Status)
	}
	if roomRepo.timesBooked["room-301"] != 1 {
		t.Errorf("confirm should bump popularity once, got %d", roomRepo.timesBooked["room-301"])
	}

	// Confirming again is a no-op, not a second increment.
	if _, err := svc.ConfirmHold(ctx, "req-a"); err != nil {
		t.Fatalf("repeated confirm should succeed: %v", err)
	}
	if roomRepo.timesBooked["room-301"] != 1 {
		t.Errorf("repeated confirm must not bump popularity again, got %d", roomRepo.timesBooked["room-301"])
	}
}

func TestConfirmAfterReleaseFails(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4)); err != nil {
		t.Fatalf("hold should succeed: %v", err)
	}
	if _, err := svc.ReleaseHold(ctx, "req-a"); err != nil {
		t.Fatalf("release should succeed: %v", err)
	}

	if _, err := svc.ConfirmHold(ctx, "req-a"); !apperrors.IsConflict(err) {
		t.Fatalf("confirming a released hold must conflict, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4)); err != nil {
		t.Fatalf("hold should succeed: %v", err)
	}
	if _, err := svc.ReleaseHold(ctx, "req-a"); err != nil {
		t.Fatalf("first release should succeed: %v", err)
	}
	lock, err := svc.ReleaseHold(ctx, "req-a")
	if err != nil {
		t.Fatalf("repeated release should succeed: %v", err)
	}
	if lock.Status != model.LockStatusReleased {
		t.Errorf("expected released, got %s", lock.Status)
	}
}

func TestMissingLockTransitionsFail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ConfirmHold(ctx, "ghost"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("confirming a missing lock should be not found, got %v", err)
	}
	if _, err := svc.ReleaseHold(ctx, "ghost"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("releasing a missing lock should be not found, got %v", err)
	}
}

func TestRoomAvailableFlagDoesNotBlockHolds(t *testing.T) {
	svc, _, roomRepo := newTestService()
	ctx := context.Background()

	room := &model.Room{HotelID: "hotel-1", Number: "301", Capacity: 2, Available: false}
	if err := svc.CreateRoom(ctx, room); err != nil {
		t.Fatalf("room creation should succeed: %v", err)
	}
	if stored := roomRepo.rooms[room.ID]; stored.Available {
		t.Fatal("setup expects an unavailable room")
	}

	if _, err := svc.HoldRoom(ctx, "req-a", room.ID, date(1), date(4)); err != nil {
		t.Fatalf("holds must ignore the display flag: %v", err)
	}
}

func TestHoldRejectsEmptyRange(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(4), date(4)); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("zero-length range should be rejected, got %v", err)
	}
	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(4), date(1)); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("inverted range should be rejected, got %v", err)
	}
}

// Randomized check of the overlap rule against a brute-force day-by-day
// oracle.
func TestOverlapMatchesDayOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	occupied := func(start, end time.Time) map[int]bool {
		days := make(map[int]bool)
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			days[d.Day()] = true
		}
		return days
	}

	for i := 0; i < 500; i++ {
		s1 := date(1 + rng.Intn(20))
		e1 := s1.AddDate(0, 0, 1+rng.Intn(7))
		s2 := date(1 + rng.Intn(20))
		e2 := s2.AddDate(0, 0, 1+rng.Intn(7))

		want := false
		d2 := occupied(s2, e2)
		for day := range occupied(s1, e1) {
			if d2[day] {
				want = true
				break
			}
		}

		if got := model.Overlaps(s1, e1, s2, e2); got != want {
			t.Fatalf("Overlaps([%s,%s), [%s,%s)) = %v, oracle says %v",
				s1.Format(time.DateOnly), e1.Format(time.DateOnly),
				s2.Format(time.DateOnly), e2.Format(time.DateOnly), got, want)
		}
	}
}

func TestCountConfirmedBookings(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	holds := []struct {
		req   string
		start int
		end   int
	}{
		{"req-a", 1, 3},
		{"req-b", 3, 5},
		{"req-c", 5, 7},
	}
	for _, h := range holds {
		if _, err := svc.HoldRoom(ctx, h.req, "room-301", date(h.start), date(h.end)); err != nil {
			t.Fatalf("hold %s should succeed: %v", h.req, err)
		}
	}
	if _, err := svc.ConfirmHold(ctx, "req-a"); err != nil {
		t.Fatalf("confirm should succeed: %v", err)
	}
	if _, err := svc.ConfirmHold(ctx, "req-b"); err != nil {
		t.Fatalf("confirm should succeed: %v", err)
	}
	if _, err := svc.ReleaseHold(ctx, "req-c"); err != nil {
		t.Fatalf("release should succeed: %v", err)
	}

	count, err := svc.CountConfirmedBookings(ctx, "room-301")
	if err != nil {
		t.Fatalf("count should succeed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 confirmed locks, got %d", count)
	}
}

func TestReleaseAfterConfirmFails(t *testing.T) {
	svc, lockRepo, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4)); err != nil {
		t.Fatalf("hold should succeed: %v", err)
	}
	if _, err := svc.ConfirmHold(ctx, "req-a"); err != nil {
		t.Fatalf("confirm should succeed: %v", err)
	}

	if _, err := svc.ReleaseHold(ctx, "req-a"); !apperrors.IsConflict(err) {
		t.Fatalf("releasing a confirmed reservation must conflict, got %v", err)
	}
	if lockRepo.locks["req-a"].Status != model.LockStatusConfirmed {
		t.Fatalf("confirmed is terminal, stored status is %s", lockRepo.locks["req-a"].Status)
	}

	// The range must still be blocked.
	if _, err := svc.HoldRoom(ctx, "req-b", "room-301", date(2), date(5)); !apperrors.IsConflict(err) {
		t.Errorf("range of a confirmed reservation must stay reserved, got %v", err)
	}
}

func TestConcurrentReleaseAndConfirmKeepConfirmed(t *testing.T) {
	svc, lockRepo, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.HoldRoom(ctx, "req-a", "room-301", date(1), date(4)); err != nil {
		t.Fatalf("hold should succeed: %v", err)
	}

	// A release that read HELD but writes after a confirm landed must lose:
	// the guarded update sees the status change and refuses the demotion.
	if err := lockRepo.UpdateStatus(ctx, "req-a", model.LockStatusHeld, model.LockStatusConfirmed); err != nil {
		t.Fatalf("setup confirm failed: %v", err)
	}
	err := lockRepo.UpdateStatus(ctx, "req-a", model.LockStatusHeld, model.LockStatusReleased)
	if !errors.Is(err, hotelserrors.ErrStaleTransition) {
		t.Fatalf("expected stale transition, got %v", err)
	}
	if lockRepo.locks["req-a"].Status != model.LockStatusConfirmed {
		t.Fatalf("guarded update must not demote confirmed, got %s", lockRepo.locks["req-a"].Status)
	}
}

func TestConcurrentOverlappingHoldsAdmitExactlyOne(t *testing.T) {
	svc, lockRepo, _ := newTestService()
	ctx := context.Background()

	const holders = 16
	var wg sync.WaitGroup
	errs := make([]error, holders)

	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			start := date(1 + n%3)
			_, errs[n] = svc.HoldRoom(ctx, fmt.Sprintf("req-%02d", n), "room-301", start, start.AddDate(0, 0, 4))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !apperrors.IsConflict(err) {
			t.Errorf("losers must see a conflict, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one hold to win, got %d", succeeded)
	}

	held := 0
	for _, lock := range lockRepo.locks {
		if lock.Status == model.LockStatusHeld {
			held++
		}
	}
	if held != 1 {
		t.Fatalf("expected exactly one held lock in the store, got %d", held)
	}
}
