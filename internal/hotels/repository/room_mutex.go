package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

const RoomLockCollectionName = "Room_hold_locks"

// RoomMutex is the scoped exclusive section keyed by room identifier that
// the hold path requires: any two holds for the same room are serialized
// across the conflict-scan-then-insert sequence. Holds for distinct rooms
// proceed concurrently.
type RoomMutex interface {
	WithRoomLock(ctx context.Context, roomID string, fn func(ctx context.Context) error) error
}

// mongoRoomMutex implements the exclusive section with an advisory-lock
// document whose _id is derived from the room id: the second inserter gets a
// duplicate key error and is turned away busy. ExpiresAt feeds a TTL index so
// a crashed holder cannot wedge the room.
type mongoRoomMutex struct {
	collection *mongo.Collection
	ttl        time.Duration
	log        *logger.Logger
}

func NewRoomMutex(cfg *config.Config) RoomMutex {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomMutex{
		collection: db.Collection(RoomLockCollectionName),
		ttl:        cfg.RoomLockTTL,
		log:        cfg.Log,
	}
}

func roomLockID(roomID string) string {
	return "room_hold_" + roomID
}

func (m *mongoRoomMutex) WithRoomLock(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	lockID := roomLockID(roomID)
	lock := &model.RoomHoldLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(m.ttl),
		CreatedAt: time.Now(),
	}

	if _, err := m.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("Room is currently being held by another request. Please try again.")
		}
		return apperrors.Internal("Failed to acquire room lock", err)
	}

	defer func() {
		if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
			m.log.Warn("Failed to release room lock", "lock_id", lockID, "error", err)
		}
	}()

	return fn(ctx)
}
