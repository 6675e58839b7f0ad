package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	hotelserrors "roombook/internal/hotels/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
)

const LockCollectionName = "Room_reservation_locks"

type ReservationLockRepository interface {
	Create(ctx context.Context, lock *model.RoomReservationLock) error
	FindByRequestID(ctx context.Context, requestID string) (*model.RoomReservationLock, error)
	FindActiveByRoom(ctx context.Context, roomID string) ([]*model.RoomReservationLock, error)
	UpdateStatus(ctx context.Context, requestID, from, to string) error
	CountByRoomAndStatus(ctx context.Context, roomID, status string) (int64, error)
	FindStaleHeld(ctx context.Context, olderThan time.Time, limit int) ([]*model.RoomReservationLock, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// Create inserts a new lock. The unique index on request_id is the durable
// backstop for hold idempotency: a concurrent duplicate insert surfaces as a
// duplicate key error rather than a second lock.
func (r *mongoReservationLockRepository) Create(ctx context.Context, lock *model.RoomReservationLock) error {
	lock.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return fmt.Errorf("failed to create reservation lock: %w", err)
	}
	return nil
}

func (r *mongoReservationLockRepository) FindByRequestID(ctx context.Context, requestID string) (*model.RoomReservationLock, error) {
	var lock model.RoomReservationLock
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hotelserrors.ErrLockNotFound
		}
		return nil, fmt.Errorf("failed to find reservation lock: %w", err)
	}
	return &lock, nil
}

// FindActiveByRoom returns the held and confirmed locks for a room; released
// locks do not occupy their date range.
func (r *mongoReservationLockRepository) FindActiveByRoom(ctx context.Context, roomID string) ([]*model.RoomReservationLock, error) {
	filter := bson.M{
		"room_id": roomID,
		"status":  bson.M{"$in": []string{model.LockStatusHeld, model.LockStatusConfirmed}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find active locks: %w", err)
	}
	defer cursor.Close(ctx)

	var locks []*model.RoomReservationLock
	if err = cursor.All(ctx, &locks); err != nil {
		return nil, fmt.Errorf("failed to decode locks: %w", err)
	}
	return locks, nil
}

// UpdateStatus transitions a lock from one expected status to another. The
// filter requires the current status to match, so two racing transitions
// cannot both apply: the loser matches nothing and gets ErrStaleTransition
// to re-read and decide.
func (r *mongoReservationLockRepository) UpdateStatus(ctx context.Context, requestID, from, to string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"request_id": requestID, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return fmt.Errorf("failed to update lock status: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, findErr := r.FindByRequestID(ctx, requestID); findErr != nil {
			return hotelserrors.ErrLockNotFound
		}
		return hotelserrors.ErrStaleTransition
	}
	return nil
}

func (r *mongoReservationLockRepository) CountByRoomAndStatus(ctx context.Context, roomID, status string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"room_id": roomID, "status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count locks: %w", err)
	}
	return count, nil
}

// FindStaleHeld returns held locks created before olderThan. These are the
// leftovers of sagas whose compensation never arrived; the sweeper releases
// them.
func (r *mongoReservationLockRepository) FindStaleHeld(ctx context.Context, olderThan time.Time, limit int) ([]*model.RoomReservationLock, error) {
	filter := bson.M{
		"status":     model.LockStatusHeld,
		"created_at": bson.M{"$lt": olderThan},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale holds: %w", err)
	}
	defer cursor.Close(ctx)

	var locks []*model.RoomReservationLock
	if err = cursor.All(ctx, &locks); err != nil {
		return nil, fmt.Errorf("failed to decode stale holds: %w", err)
	}
	return locks, nil
}

func (r *mongoReservationLockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
