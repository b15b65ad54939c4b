package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskConversionWelcomeEmail = "conversion.welcome_email"

const TaskConversionAttentionAlert = "conversion.attention_alert"

// WelcomeEmailPayload never carries the portal secret; the operator hands it
// over out of band.
type WelcomeEmailPayload struct {
	SessionID       string `json:"sessionId"`
	CustomerID      string `json:"customerId"`
	ToEmail         string `json:"toEmail"`
	CustomerName    string `json:"customerName"`
	EngagementTitle string `json:"engagementTitle"`
}

type AttentionAlertPayload struct {
	SessionID       string `json:"sessionId"`
	LeadID          string `json:"leadId"`
	CustomerID      string `json:"customerId"`
	CredentialEmail string `json:"credentialEmail"`
	Reason          string `json:"reason"`
}

func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversionWelcomeEmail, data), nil
}

func ParseWelcomeEmailPayload(task *asynq.Task) (WelcomeEmailPayload, error) {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WelcomeEmailPayload{}, err
	}
	return payload, nil
}

func NewAttentionAlertTask(payload AttentionAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversionAttentionAlert, data), nil
}

func ParseAttentionAlertPayload(task *asynq.Task) (AttentionAlertPayload, error) {
	var payload AttentionAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AttentionAlertPayload{}, err
	}
	return payload, nil
}
