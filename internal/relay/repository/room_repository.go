package repository

import (
	"context"
	"errors"

	"joa_realtime/internal/relay/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrRoomNotFound no room with that id
var ErrRoomNotFound = errors.New("room not found")

// RoomRepository definition chat room
type RoomRepository interface {
	// CreateRoom insert the room, an existing id is kept as is
	CreateRoom(ctx context.Context, room *domain.ChatRoom) (bool, error)
	FindByID(ctx context.Context, roomID int64) (*domain.ChatRoom, error)
	UpdateRoom(ctx context.Context, room *domain.ChatRoom) error
	FindByMember(ctx context.Context, memberID int64) ([]domain.ChatRoom, error)
}

type chatRepository struct {
	roomsColl *mongo.Collection
}

// NewMongoChatRepository create new mongo chat
func NewMongoChatRepository(db *mongo.Database) RoomRepository {
	return &chatRepository{
		roomsColl: db.Collection("rooms"),
	}
}

// CreateRoom create room
func (r *chatRepository) CreateRoom(ctx context.Context, room *domain.ChatRoom) (bool, error) {
	res, err := r.roomsColl.UpdateOne(ctx,
		bson.M{"_id": room.ID},
		bson.M{"$setOnInsert": bson.M{
			"members":    room.Members,
			"state":      room.State,
			"extended":   room.Extended,
			"created_at": room.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// FindByID find room by id
func (r *chatRepository) FindByID(ctx context.Context, roomID int64) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.roomsColl.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// UpdateRoom update room info
func (r *chatRepository) UpdateRoom(ctx context.Context, room *domain.ChatRoom) error {
	filter := bson.M{"_id": room.ID}
	update := bson.M{"$set": room}
	_, err := r.roomsColl.UpdateOne(ctx, filter, update)
	return err
}

// FindByMember rooms of a member, newest first
func (r *chatRepository) FindByMember(ctx context.Context, memberID int64) ([]domain.ChatRoom, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.roomsColl.Find(ctx, bson.M{"members": memberID, "left": bson.M{"$ne": memberID}}, opts)
	if err != nil {
		return nil, err
	}
	rooms := []domain.ChatRoom{}
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}
