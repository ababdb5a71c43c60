package notify

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"signal_bot/internal/models"
)

// Redis публикует сигнал в pub/sub канал.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(ctx context.Context, addr, password string, db int, channel string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Redis{client: client, channel: channel}, nil
}

func (r *Redis) Deliver(ctx context.Context, sig models.Signal, cfg models.StrategyConfig) error {
	body, err := sonic.Marshal(NewPayload(sig, cfg))
	if err != nil {
		return fmt.Errorf("redis: marshal: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", r.channel, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
