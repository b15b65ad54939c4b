package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"portal_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	welcomeEmailMaxRetry   = 5
	attentionAlertMaxRetry = 10
	taskTimeout            = 30 * time.Second
)

type Client struct {
	client *asynq.Client
	queue  string
}

// ConversionNotifier enqueues the follow-up work of a finished conversion.
type ConversionNotifier interface {
	EnqueueWelcomeEmail(ctx context.Context, payload WelcomeEmailPayload) error
	EnqueueAttentionAlert(ctx context.Context, payload AttentionAlertPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueWelcomeEmail is keyed by session so a retried close does not send twice.
func (c *Client) EnqueueWelcomeEmail(ctx context.Context, payload WelcomeEmailPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewWelcomeEmailTask(payload)
	if err != nil {
		return err
	}

	return c.enqueue(ctx, task,
		asynq.TaskID("welcome:"+payload.SessionID),
		asynq.MaxRetry(welcomeEmailMaxRetry),
	)
}

func (c *Client) EnqueueAttentionAlert(ctx context.Context, payload AttentionAlertPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewAttentionAlertTask(payload)
	if err != nil {
		return err
	}

	return c.enqueue(ctx, task, asynq.MaxRetry(attentionAlertMaxRetry))
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	opts = append(opts, asynq.Queue(c.queue), asynq.Timeout(taskTimeout))
	_, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

var _ ConversionNotifier = (*Client)(nil)
