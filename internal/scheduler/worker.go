package scheduler

import (
	"context"
	"fmt"

	"portal_backend/internal/email"
	"portal_backend/platform/config"
	"portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender email.Sender
	notify config.NotificationConfig
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, notify config.NotificationConfig, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	return newWorker(server, notify, sender, log), nil
}

func newWorker(server *asynq.Server, notify config.NotificationConfig, sender email.Sender, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		sender: sender,
		notify: notify,
		log:    log,
	}

	mux.HandleFunc(TaskConversionWelcomeEmail, w.handleWelcomeEmail)
	mux.HandleFunc(TaskConversionAttentionAlert, w.handleAttentionAlert)

	return w
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("scheduler worker stopped")
	return nil
}

func (w *Worker) handleWelcomeEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseWelcomeEmailPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.ToEmail == "" {
		return nil
	}

	err = w.sender.SendCustomerWelcomeEmail(ctx, email.CustomerWelcome{
		ToEmail:         payload.ToEmail,
		CustomerName:    payload.CustomerName,
		EngagementTitle: payload.EngagementTitle,
		LoginEmail:      payload.ToEmail,
		PortalBaseURL:   w.notify.GetAppBaseURL(),
	})
	if err != nil {
		w.log.Warn("welcome email failed", "sessionId", payload.SessionID, "customerId", payload.CustomerID, "error", err)
		return err
	}

	w.log.Info("welcome email sent", "sessionId", payload.SessionID, "customerId", payload.CustomerID)
	return nil
}

func (w *Worker) handleAttentionAlert(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAttentionAlertPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	to := w.notify.GetOpsAlertEmail()
	if to == "" {
		w.log.Warn("attention alert dropped: no operations address configured", "leadId", payload.LeadID)
		return nil
	}

	err = w.sender.SendConversionAttentionEmail(ctx, email.ConversionAttention{
		ToEmail:         to,
		LeadID:          payload.LeadID,
		CustomerID:      payload.CustomerID,
		CredentialEmail: payload.CredentialEmail,
		Reason:          payload.Reason,
	})
	if err != nil {
		w.log.Warn("attention alert failed", "leadId", payload.LeadID, "error", err)
		return err
	}
	return nil
}
