package tiers

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

// Built-in fallbacks when the free tier row is missing from the catalog
const (
	DefaultTierName    = "free"
	DefaultDailyLimit  = 50
	DefaultHourlyLimit = 10
)

type tierService struct {
	log       logger.Logger
	tierRepo  interfaces.SendingTierRepository
	limitRepo interfaces.SendingLimitRepository
}

func NewTierService(log logger.Logger, tierRepo interfaces.SendingTierRepository, limitRepo interfaces.SendingLimitRepository) interfaces.TierService {
	return &tierService{
		log:       log,
		tierRepo:  tierRepo,
		limitRepo: limitRepo,
	}
}

func (s *tierService) ResolveTier(ctx context.Context, name string) (*models.SendingTier, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TierService.ResolveTier")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("tierName", name)

	tier, err := s.tierRepo.GetByName(ctx, name)
	if err != nil {
		if !errors.Is(err, er.ErrTierNotFound) {
			tracing.TraceErr(span, err)
		}
		return nil, err
	}

	return tier, nil
}

func (s *tierService) ListTiers(ctx context.Context, activeOnly bool) ([]*models.SendingTier, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TierService.ListTiers")
	defer span.Finish()
	tracing.TagComponentService(span)

	return s.tierRepo.GetAll(ctx, activeOnly)
}

func (s *tierService) SaveTier(ctx context.Context, tier *models.SendingTier) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TierService.SaveTier")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("tierName", tier.Name)

	if tier.Name == "" {
		return errors.New("tier name is required")
	}
	if tier.DailyLimit < 0 || tier.HourlyLimit < 0 {
		return errors.New("tier limits must not be negative")
	}
	if tier.DisplayName == "" {
		tier.DisplayName = tier.Name
	}

	if err := s.tierRepo.Save(ctx, tier); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *tierService) DeactivateTier(ctx context.Context, name string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TierService.DeactivateTier")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("tierName", name)

	if name == DefaultTierName {
		return errors.New("the default tier cannot be deactivated")
	}

	if err := s.tierRepo.SetActive(ctx, name, false); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// AssignTier copies the tier's caps onto the user row. Rows keep the copied
// values until the next assignment, so later tier edits never change users
// retroactively.
func (s *tierService) AssignTier(ctx context.Context, userID, tierName string) (*models.EmailSendingLimit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TierService.AssignTier")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagUserId(span, userID)
	span.LogKV("tierName", tierName)

	tier, err := s.tierRepo.GetByName(ctx, tierName)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if !tier.IsActive {
		return nil, er.ErrTierInactive
	}

	if _, err := s.limitRepo.EnsureForUser(ctx, userID, *tier); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	updated, err := s.limitRepo.UpdateWithLock(ctx, userID, func(limit *models.EmailSendingLimit) error {
		limit.TierName = tier.Name
		limit.DailyLimit = tier.DailyLimit
		limit.HourlyLimit = tier.HourlyLimit
		limit.CustomLimitReason = nil
		limit.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("assigned tier %s to user %s (daily %d, hourly %d)", tier.Name, userID, tier.DailyLimit, tier.HourlyLimit)
	return updated, nil
}

// EffectiveLimits reads the caps straight off the row. The row already holds
// either the denormalized tier defaults or an admin override.
func (s *tierService) EffectiveLimits(limit *models.EmailSendingLimit) (int, int) {
	daily := limit.DailyLimit
	hourly := limit.HourlyLimit
	if daily <= 0 {
		daily = DefaultDailyLimit
	}
	if hourly <= 0 {
		hourly = DefaultHourlyLimit
	}
	return daily, hourly
}

// DefaultTier returns the catalog's free tier, or a built-in fallback when
// the catalog has not been seeded yet.
func (s *tierService) DefaultTier(ctx context.Context) models.SendingTier {
	tier, err := s.tierRepo.GetByName(ctx, DefaultTierName)
	if err == nil && tier != nil {
		return *tier
	}
	return models.SendingTier{
		Name:        DefaultTierName,
		DisplayName: "Free",
		DailyLimit:  DefaultDailyLimit,
		HourlyLimit: DefaultHourlyLimit,
		IsActive:    true,
	}
}
