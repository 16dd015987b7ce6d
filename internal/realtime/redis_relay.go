package realtime

import (
	"context"
	"encoding/json"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel shared by every server instance.
const DefaultChannel = "inkwell:notifications"

// RedisRelay fans published rows out through Redis so that a client
// connected to any instance receives rows inserted by any other.
type RedisRelay struct {
	client  *redis.Client
	hub     *Hub
	channel string
}

func NewRedisRelay(client *redis.Client, hub *Hub, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{client: client, hub: hub, channel: channel}
}

func (r *RedisRelay) Publish(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run forwards relayed rows into the local hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Log.Info("redis relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n models.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				logger.WarnWithFields("malformed relay message", err)
				continue
			}
			if err := r.hub.Publish(ctx, n); err != nil {
				return nil
			}
		}
	}
}
