package interfaces

import (
	"context"

	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

// TierService resolves sending tiers and effective per-user limits
type TierService interface {
	ResolveTier(ctx context.Context, name string) (*models.SendingTier, error)
	ListTiers(ctx context.Context, activeOnly bool) ([]*models.SendingTier, error)
	SaveTier(ctx context.Context, tier *models.SendingTier) error
	DeactivateTier(ctx context.Context, name string) error
	// AssignTier denormalizes the tier's limits onto the user row. Tier edits
	// after assignment do not change the row until the user is re-assigned.
	AssignTier(ctx context.Context, userID, tierName string) (*models.EmailSendingLimit, error)
	// EffectiveLimits returns the caps in force for the row: explicit custom
	// overrides win over the denormalized tier defaults.
	EffectiveLimits(limit *models.EmailSendingLimit) (daily int, hourly int)
	// DefaultTier is the tier new users start on. It never fails; when the
	// catalog is not seeded yet a built-in fallback is returned.
	DefaultTier(ctx context.Context) models.SendingTier
}
