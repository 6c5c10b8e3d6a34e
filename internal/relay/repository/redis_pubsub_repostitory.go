package repository

import (
	"context"

	"joa_realtime/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PubSub fan-out of encoded frames between relay connections
type PubSub interface {
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string, handler func(payload string)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish 發布到指定 channel
func (r *RedisPubSub) Publish(ctx context.Context, channel, payload string) error {
	return r.client.Publish(ctx, channel, payload).Err()
}

// Subscribe 訂閱 channel，收到訊息後呼叫 handler, 直到 ctx 結束
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload string)) error {
	sub := r.client.Subscribe(ctx, channel)
	// 等訂閱確認, 之後發布的訊息才不會漏掉
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler(m.Payload)
			case <-ctx.Done():
				logger.Log.Debug("sub close", zap.String("channel", channel))
				return
			}
		}
	}()
	return nil
}

// Sequence monotonic id source
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// RedisSequence INCR based message id sequence
type RedisSequence struct {
	client *redis.Client
	key    string
}

// NewRedisSequence create sequence on key
func NewRedisSequence(client *redis.Client, key string) *RedisSequence {
	return &RedisSequence{client: client, key: key}
}

// Next next id, starting at 1
func (s *RedisSequence) Next(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, s.key).Result()
}
