package scheduler

import (
	"context"
	"errors"
	"testing"

	"portal_backend/internal/email"
	"portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "conversion" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

type testNotificationConfig struct {
	opsEmail string
}

func (c testNotificationConfig) GetAppBaseURL() string    { return "https://app.example.com" }
func (c testNotificationConfig) GetOpsAlertEmail() string { return c.opsEmail }

type recordingSender struct {
	welcomes []email.CustomerWelcome
	alerts   []email.ConversionAttention
	err      error
}

func (s *recordingSender) SendCustomerWelcomeEmail(_ context.Context, welcome email.CustomerWelcome) error {
	s.welcomes = append(s.welcomes, welcome)
	return s.err
}

func (s *recordingSender) SendConversionAttentionEmail(_ context.Context, alert email.ConversionAttention) error {
	s.alerts = append(s.alerts, alert)
	return s.err
}

func TestRedisClientOptParsesURL(t *testing.T) {
	opt, err := redisClientOpt("rediss://user:pw@cache.example.com:6380/2", true)
	if err != nil {
		t.Fatalf("redisClientOpt returned error: %v", err)
	}
	if opt.Addr != "cache.example.com:6380" || opt.Password != "pw" || opt.DB != 2 {
		t.Fatalf("unexpected options: %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config for rediss url")
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected missing redis url to fail")
	}
}

func TestEnqueueWelcomeEmailIsKeyedBySession(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer func() { _ = client.Close() }()

	payload := WelcomeEmailPayload{SessionID: "s-1", ToEmail: "jane@example.com"}
	if err := client.EnqueueWelcomeEmail(context.Background(), payload); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if err := client.EnqueueWelcomeEmail(context.Background(), payload); err != nil {
		t.Fatalf("duplicate enqueue should be ignored, got %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer func() { _ = inspector.Close() }()

	info, err := inspector.GetTaskInfo("conversion", "welcome:s-1")
	if err != nil {
		t.Fatalf("expected task to be queued: %v", err)
	}
	if info.Type != TaskConversionWelcomeEmail {
		t.Fatalf("unexpected task type %q", info.Type)
	}
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueAttentionAlert(context.Background(), AttentionAlertPayload{}); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}

func TestHandleWelcomeEmailSendsWithoutSecret(t *testing.T) {
	sender := &recordingSender{}
	w := newWorker(nil, testNotificationConfig{}, sender, logger.Discard())

	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{
		SessionID:       "s-1",
		ToEmail:         "jane@example.com",
		CustomerName:    "Jane Doe",
		EngagementTitle: "Web Design – Acme",
	})
	if err != nil {
		t.Fatalf("NewWelcomeEmailTask returned error: %v", err)
	}

	if err := w.handleWelcomeEmail(context.Background(), task); err != nil {
		t.Fatalf("handleWelcomeEmail returned error: %v", err)
	}
	if len(sender.welcomes) != 1 {
		t.Fatalf("expected one welcome email, got %d", len(sender.welcomes))
	}
	got := sender.welcomes[0]
	if got.LoginEmail != "jane@example.com" || got.PortalBaseURL != "https://app.example.com" {
		t.Fatalf("unexpected welcome: %+v", got)
	}
}

func TestHandleWelcomeEmailRetriesOnSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	w := newWorker(nil, testNotificationConfig{}, sender, logger.Discard())

	task, _ := NewWelcomeEmailTask(WelcomeEmailPayload{SessionID: "s-1", ToEmail: "jane@example.com"})
	if err := w.handleWelcomeEmail(context.Background(), task); err == nil {
		t.Fatal("expected send failure to be returned for retry")
	}
}

func TestHandleWelcomeEmailSkipsRetryOnBadPayload(t *testing.T) {
	w := newWorker(nil, testNotificationConfig{}, &recordingSender{}, logger.Discard())

	err := w.handleWelcomeEmail(context.Background(), asynq.NewTask(TaskConversionWelcomeEmail, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleAttentionAlert(t *testing.T) {
	sender := &recordingSender{}
	task, _ := NewAttentionAlertTask(AttentionAlertPayload{LeadID: "lead-1", Reason: "lead_retirement_failed"})

	dropped := newWorker(nil, testNotificationConfig{}, sender, logger.Discard())
	if err := dropped.handleAttentionAlert(context.Background(), task); err != nil {
		t.Fatalf("expected missing ops address to be tolerated, got %v", err)
	}
	if len(sender.alerts) != 0 {
		t.Fatal("expected no alert without an operations address")
	}

	w := newWorker(nil, testNotificationConfig{opsEmail: "ops@example.com"}, sender, logger.Discard())
	if err := w.handleAttentionAlert(context.Background(), task); err != nil {
		t.Fatalf("handleAttentionAlert returned error: %v", err)
	}
	if len(sender.alerts) != 1 || sender.alerts[0].ToEmail != "ops@example.com" || sender.alerts[0].LeadID != "lead-1" {
		t.Fatalf("unexpected alerts: %+v", sender.alerts)
	}
}
