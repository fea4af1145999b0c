package interfaces

import (
	"context"

	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

// RateLimiterService decides whether a send attempt is allowed and maintains
// the per-user counters. A denied attempt never mutates counters; an allowed
// attempt consumes the whole recipient count atomically or nothing.
type RateLimiterService interface {
	AttemptSend(ctx context.Context, req SendAttemptRequest) (*SendDecision, error)
	SuspendSending(ctx context.Context, userID, reason string) error
	ResumeSending(ctx context.Context, userID string) error
	ResetCounters(ctx context.Context, userID string) error
	UpdateLimits(ctx context.Context, userID string, update LimitUpdate) (*models.EmailSendingLimit, error)
}

type SendAttemptRequest struct {
	UserID         string `json:"userId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientCount int    `json:"recipientCount"`
	Subject        string `json:"subject"`
	IPAddress      string `json:"ipAddress"`
	UserAgent      string `json:"userAgent"`
}

type SendDecision struct {
	Allowed            bool   `json:"allowed"`
	Reason             string `json:"reason,omitempty"`
	EmailsSentToday    int    `json:"emailsSentToday"`
	EmailsSentThisHour int    `json:"emailsSentThisHour"`
	DailyLimit         int    `json:"dailyLimit"`
	HourlyLimit        int    `json:"hourlyLimit"`
}

type LimitUpdate struct {
	TierName          *string `json:"tierName,omitempty"`
	DailyLimit        *int    `json:"dailyLimit,omitempty"`
	HourlyLimit       *int    `json:"hourlyLimit,omitempty"`
	IsSendingEnabled  *bool   `json:"isSendingEnabled,omitempty"`
	CustomLimitReason *string `json:"customLimitReason,omitempty"`
}
