package delivery

import (
	"context"
	"fmt"

	"clearaway_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues best-effort delivery tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates the delivery queue client. It returns an error when
// Redis is not configured; callers treat a nil client as "queue disabled"
// and degrade to a direct fire-and-forget post.
func NewClient(cfg config.DeliveryConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetDeliveryQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueBestEffort queues a payload for background re-delivery.
func (c *Client) EnqueueBestEffort(ctx context.Context, sessionID string, payload map[string]interface{}) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("delivery queue disabled")
	}

	task, err := NewBestEffortSubmitTask(BestEffortSubmitPayload{
		SessionID: sessionID,
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
