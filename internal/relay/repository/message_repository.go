package repository

import (
	"context"
	"fmt"

	"joa_realtime/internal/relay/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository day bucket message storage
type MessageRepository interface {
	// AppendMessage 加到當天的桶, 桶不存在就建立
	AppendMessage(ctx context.Context, roomID int64, date string, msg domain.ChatMessage) error
	// FindBucket 查詢指定聊天室及日期的桶
	FindBucket(ctx context.Context, roomID int64, date string) (*domain.MessageBucket, error)
	// FindMessages all messages of a room, oldest first
	FindMessages(ctx context.Context, roomID int64) ([]domain.ChatMessage, error)
	// MarkRoomRead add memberID to read_by of every message the peer sent
	MarkRoomRead(ctx context.Context, roomID, memberID int64) (int64, error)
	// CountUnreadMessagesByRoom 每個聊天室未讀數
	CountUnreadMessagesByRoom(ctx context.Context, memberID int64) ([]domain.RoomUnreadInfo, error)
	// LastMessage newest message of a room, nil when empty
	LastMessage(ctx context.Context, roomID int64) (*domain.ChatMessage, error)
}

type chatMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoChatMessageRepository create a ChatMessageRepository
func NewMongoChatMessageRepository(db *mongo.Database) MessageRepository {
	return &chatMessageRepository{
		coll: db.Collection("chat_messages"),
	}
}

func (r *chatMessageRepository) AppendMessage(ctx context.Context, roomID int64, date string, msg domain.ChatMessage) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"room_id": roomID, "date": date},
		bson.M{"$push": bson.M{"messages": msg}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *chatMessageRepository) FindBucket(ctx context.Context, roomID int64, date string) (*domain.MessageBucket, error) {
	filter := bson.M{"room_id": roomID, "date": date}
	var bucket domain.MessageBucket
	err := r.coll.FindOne(ctx, filter).Decode(&bucket)
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (r *chatMessageRepository) FindMessages(ctx context.Context, roomID int64) ([]domain.ChatMessage, error) {
	// 按日期升序排序（最早的桶在前）
	opts := options.Find().SetSort(bson.M{"date": 1})
	cur, err := r.coll.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	var buckets []domain.MessageBucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, err
	}

	var messages []domain.ChatMessage
	for _, b := range buckets {
		messages = append(messages, b.Messages...)
	}
	return messages, nil
}

func (r *chatMessageRepository) MarkRoomRead(ctx context.Context, roomID, memberID int64) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"room_id": roomID},
		bson.M{"$addToSet": bson.M{"messages.$[m].read_by": memberID}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m.sender_id": bson.M{"$ne": memberID}}},
		}),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *chatMessageRepository) CountUnreadMessagesByRoom(ctx context.Context, memberID int64) ([]domain.RoomUnreadInfo, error) {
	pipeline := mongo.Pipeline{
		// 1. 展開每個 bucket 的 messages 陣列
		bson.D{{Key: "$unwind", Value: "$messages"}},
		// 2. 過濾出別人傳的未讀訊息
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "messages.sender_id", Value: bson.D{{Key: "$ne", Value: memberID}}},
			{Key: "messages.read_by", Value: bson.D{{Key: "$ne", Value: memberID}}},
		}}},
		// 3. 按 room_id 分組，計算未讀數量和最大時間戳
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$room_id"},
			{Key: "unread_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "last_unread_timestamp", Value: bson.D{{Key: "$max", Value: "$messages.timestamp"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "last_unread_timestamp", Value: -1},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate error: %w", err)
	}

	var results []domain.RoomUnreadInfo
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("cursor All error: %w", err)
	}
	return results, nil
}

func (r *chatMessageRepository) LastMessage(ctx context.Context, roomID int64) (*domain.ChatMessage, error) {
	opts := options.FindOne().SetSort(bson.M{"date": -1})
	var bucket domain.MessageBucket
	err := r.coll.FindOne(ctx, bson.M{"room_id": roomID}, opts).Decode(&bucket)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bucket.Messages) == 0 {
		return nil, nil
	}
	last := bucket.Messages[len(bucket.Messages)-1]
	return &last, nil
}
