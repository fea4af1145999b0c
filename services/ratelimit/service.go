package ratelimit

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

// errSendingDisabled aborts the locked update so the disabled-deny path
// commits nothing
var errSendingDisabled = errors.New("sending is disabled")

type rateLimiterService struct {
	log           logger.Logger
	limitRepo     interfaces.SendingLimitRepository
	sendLogRepo   interfaces.SendLogRepository
	violationRepo interfaces.ViolationRepository
	tierService   interfaces.TierService

	// nowFunc is swapped out in tests to exercise rollover boundaries
	nowFunc func() time.Time
}

func NewRateLimiterService(
	log logger.Logger,
	limitRepo interfaces.SendingLimitRepository,
	sendLogRepo interfaces.SendLogRepository,
	violationRepo interfaces.ViolationRepository,
	tierService interfaces.TierService,
) interfaces.RateLimiterService {
	return &rateLimiterService{
		log:           log,
		limitRepo:     limitRepo,
		sendLogRepo:   sendLogRepo,
		violationRepo: violationRepo,
		tierService:   tierService,
		nowFunc:       func() time.Time { return time.Now().UTC() },
	}
}

// AttemptSend runs the rollover-check-increment sequence for one send attempt.
// The whole sequence executes under the user's row lock: concurrent attempts
// for the same user serialize, so counters can never overshoot the caps. A
// denial leaves the counters untouched; an allow consumes the full recipient
// count or nothing.
func (s *rateLimiterService) AttemptSend(ctx context.Context, req interfaces.SendAttemptRequest) (*interfaces.SendDecision, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RateLimiterService.AttemptSend")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagUserId(span, req.UserID)
	span.LogKV("recipientCount", req.RecipientCount)

	if req.UserID == "" {
		return nil, errors.New("user id is required")
	}
	if req.RecipientCount <= 0 {
		req.RecipientCount = 1
	}

	defaults := s.tierService.DefaultTier(ctx)
	if _, err := s.limitRepo.EnsureForUser(ctx, req.UserID, defaults); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	now := s.nowFunc()
	decision := &interfaces.SendDecision{}
	var violation *models.SendingLimitViolation

	updated, err := s.limitRepo.UpdateWithLock(ctx, req.UserID, func(limit *models.EmailSendingLimit) error {
		daily, hourly := s.tierService.EffectiveLimits(limit)
		decision.DailyLimit = daily
		decision.HourlyLimit = hourly

		// The kill switch is checked before rollover: a disabled user's row
		// stays exactly as stored, stale windows included. The abort keeps
		// the transaction from persisting anything.
		if !limit.IsSendingEnabled {
			decision.Allowed = false
			decision.Reason = models.BlockedReasonSendingDisabled
			decision.EmailsSentToday = limit.EmailsSentToday
			decision.EmailsSentThisHour = limit.EmailsSentThisHour
			return errSendingDisabled
		}

		rolloverCounters(limit, now)

		switch {
		case limit.EmailsSentToday+req.RecipientCount > daily:
			decision.Allowed = false
			decision.Reason = models.BlockedReasonDailyLimit
			violation = s.buildViolation(req, models.ViolationTypeDailyLimit, limit.EmailsSentToday, daily)
		case limit.EmailsSentThisHour+req.RecipientCount > hourly:
			decision.Allowed = false
			decision.Reason = models.BlockedReasonHourlyLimit
			violation = s.buildViolation(req, models.ViolationTypeHourlyLimit, limit.EmailsSentThisHour, hourly)
		default:
			decision.Allowed = true
			limit.EmailsSentToday += req.RecipientCount
			limit.EmailsSentThisHour += req.RecipientCount
			limit.UpdatedAt = now
		}

		return nil
	})
	if err == errSendingDisabled {
		s.recordAttempt(ctx, req, decision, nil, now)
		return decision, nil
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	decision.EmailsSentToday = updated.EmailsSentToday
	decision.EmailsSentThisHour = updated.EmailsSentThisHour

	// Audit rows are written outside the lock; losing one never affects
	// the counters the decision was made on.
	s.recordAttempt(ctx, req, decision, violation, now)

	return decision, nil
}

// rolloverCounters zeroes stale windows in place. Both windows are UTC: the
// daily counter resets on calendar date change, the hourly one on clock hour
// change. Applying the same instant twice is a no-op.
func rolloverCounters(limit *models.EmailSendingLimit, now time.Time) {
	today := now.Truncate(24 * time.Hour)
	if limit.LastResetDate.Before(today) {
		limit.EmailsSentToday = 0
		limit.LastResetDate = today
	}

	hour := now.Truncate(time.Hour)
	if limit.LastResetHour.Before(hour) {
		limit.EmailsSentThisHour = 0
		limit.LastResetHour = hour
	}
}

func (s *rateLimiterService) buildViolation(req interfaces.SendAttemptRequest, violationType string, counterAtTime, limitAtTime int) *models.SendingLimitViolation {
	return &models.SendingLimitViolation{
		UserID:         req.UserID,
		ViolationType:  violationType,
		AttemptedCount: req.RecipientCount,
		LimitAtTime:    limitAtTime,
		ViolationDetails: models.JSONMap{
			"counterAtTime":  counterAtTime,
			"recipientEmail": req.RecipientEmail,
			"subject":        req.Subject,
			"ipAddress":      req.IPAddress,
		},
		ActionTaken: "logged",
	}
}

func (s *rateLimiterService) recordAttempt(ctx context.Context, req interfaces.SendAttemptRequest, decision *interfaces.SendDecision, violation *models.SendingLimitViolation, now time.Time) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RateLimiterService.recordAttempt")
	defer span.Finish()
	tracing.TagComponentService(span)

	entry := &models.EmailSendLog{
		UserID:         req.UserID,
		RecipientEmail: req.RecipientEmail,
		RecipientCount: req.RecipientCount,
		Subject:        req.Subject,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		SentAt:         now,
	}
	if decision.Allowed {
		entry.Status = models.SendStatusSent
	} else {
		entry.Status = models.SendStatusBlocked
		reason := decision.Reason
		entry.BlockedReason = &reason
	}

	if err := s.sendLogRepo.Create(ctx, entry); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to write send log for user %s: %v", req.UserID, err)
	}

	if violation != nil {
		if err := s.violationRepo.Create(ctx, violation); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("failed to record violation for user %s: %v", req.UserID, err)
		}
	}
}

// SuspendSending flips the kill switch off. Counters keep their values; the
// deny path short-circuits before any limit math.
func (s *rateLimiterService) SuspendSending(ctx context.Context, userID, reason string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RateLimiterService.SuspendSending")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagUserId(span, userID)

	_, err := s.limitRepo.UpdateWithLock(ctx, userID, func(limit *models.EmailSendingLimit) error {
		limit.IsSendingEnabled = false
		// the reason always replaces whatever a previous override left behind
		if reason == "" {
			limit.CustomLimitReason = nil
		} else {
			limit.CustomLimitReason = &reason
		}
		limit.UpdatedAt = s.nowFunc()
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.log.Warnf("sending suspended for user %s: %s", userID, reason)
	return nil
}

func (s *rateLimiterService) ResumeSending(ctx context.Context, userID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RateLimiterService.ResumeSending")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagUserId(span, userID)

	_, err := s.limitRepo.UpdateWithLock(ctx, userID, func(limit *models.EmailSendingLimit) error {
		limit.IsSendingEnabled = true
		limit.CustomLimitReason = nil
		limit.UpdatedAt = s.nowFunc()
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.log.Infof("sending resumed for user %s", userID)
	return nil
}

// ResetCounters zeroes both windows immediately, ahead of their natural
// rollover. Used by admins after resolving a violation.
func (s *rateLimiterService) ResetCounters(ctx context.Context, userID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RateLimiterService.ResetCounters")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagUserId(span, userID)

	now := s.nowFunc()
	_, err := s.limitRepo.UpdateWithLock(ctx, userID, func(limit *models.EmailSendingLimit) error {
		limit.EmailsSentToday = 0
		limit.EmailsSentThisHour = 0
		limit.LastResetDate = now.Truncate(24 * time.Hour)
		limit.LastResetHour = now.Truncate(time.Hour)
		limit.UpdatedAt = now
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// UpdateLimits applies an admin override to the user row. A tier change
// re-denormalizes that tier's caps first, then explicit caps win on top.
func (s *rateLimiterService) UpdateLimits(ctx context.Context, userID string, update interfaces.LimitUpdate) (*models.EmailSendingLimit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RateLimiterService.UpdateLimits")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagUserId(span, userID)

	if update.DailyLimit != nil && *update.DailyLimit < 0 {
		return nil, errors.New("daily limit must not be negative")
	}
	if update.HourlyLimit != nil && *update.HourlyLimit < 0 {
		return nil, errors.New("hourly limit must not be negative")
	}

	var tier *models.SendingTier
	if update.TierName != nil {
		resolved, err := s.tierService.ResolveTier(ctx, *update.TierName)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if !resolved.IsActive {
			return nil, er.ErrTierInactive
		}
		tier = resolved
	}

	updated, err := s.limitRepo.UpdateWithLock(ctx, userID, func(limit *models.EmailSendingLimit) error {
		if tier != nil {
			limit.TierName = tier.Name
			limit.DailyLimit = tier.DailyLimit
			limit.HourlyLimit = tier.HourlyLimit
		}
		if update.DailyLimit != nil {
			limit.DailyLimit = *update.DailyLimit
		}
		if update.HourlyLimit != nil {
			limit.HourlyLimit = *update.HourlyLimit
		}
		if update.IsSendingEnabled != nil {
			limit.IsSendingEnabled = *update.IsSendingEnabled
		}
		if update.CustomLimitReason != nil {
			if *update.CustomLimitReason == "" {
				limit.CustomLimitReason = nil
			} else {
				limit.CustomLimitReason = update.CustomLimitReason
			}
		}
		limit.UpdatedAt = s.nowFunc()
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return updated, nil
}
