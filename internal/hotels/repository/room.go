package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	hotelserrors "roombook/internal/hotels/errors"
	"roombook/pkg/config"
	"roombook/pkg/model"
)

const (
	RoomCollectionName  = "Rooms"
	HotelCollectionName = "Hotels"
)

type RoomRepository interface {
	CreateHotel(ctx context.Context, hotel *model.Hotel) error
	CreateRoom(ctx context.Context, room *model.Room) error
	FindRoomByID(ctx context.Context, id string) (*model.Room, error)
	FindAllRooms(ctx context.Context) ([]*model.Room, error)
	IncrementTimesBooked(ctx context.Context, roomID string) error
}

type mongoRoomRepository struct {
	cfg    *config.Config
	rooms  *mongo.Collection
	hotels *mongo.Collection
}

func NewRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		cfg:    cfg,
		rooms:  db.Collection(RoomCollectionName),
		hotels: db.Collection(HotelCollectionName),
	}
}

func (r *mongoRoomRepository) CreateHotel(ctx context.Context, hotel *model.Hotel) error {
	hotel.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.hotels.InsertOne(ctx, hotel)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		hotel.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRoomRepository) CreateRoom(ctx context.Context, room *model.Room) error {
	room.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.rooms.InsertOne(ctx, room)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		room.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRoomRepository) FindRoomByID(ctx context.Context, id string) (*model.Room, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}

	var room model.Room
	err = r.rooms.FindOne(ctx, bson.M{"_id": objectID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hotelserrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

func (r *mongoRoomRepository) FindAllRooms(ctx context.Context) ([]*model.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.rooms.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

func (r *mongoRoomRepository) IncrementTimesBooked(ctx context.Context, roomID string) error {
	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, roomID)
	}

	result, err := r.rooms.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"times_booked": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment times booked: %w", err)
	}
	if result.MatchedCount == 0 {
		return hotelserrors.ErrRoomNotFound
	}
	return nil
}
