package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

type sendingTierRepository struct {
	db *gorm.DB
}

func NewSendingTierRepository(db *gorm.DB) interfaces.SendingTierRepository {
	return &sendingTierRepository{db: db}
}

// GetByName looks a tier up by its canonical lowercase name, case-sensitive
func (r *sendingTierRepository) GetByName(ctx context.Context, name string) (*models.SendingTier, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingTierRepository.GetByName")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var tier models.SendingTier
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&tier)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, er.ErrTierNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get sending tier: %w", result.Error)
	}

	return &tier, nil
}

func (r *sendingTierRepository) GetAll(ctx context.Context, activeOnly bool) ([]*models.SendingTier, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingTierRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Order("sort_order asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var tiers []*models.SendingTier
	if err := query.Find(&tiers).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list sending tiers: %w", err)
	}

	return tiers, nil
}

func (r *sendingTierRepository) Save(ctx context.Context, tier *models.SendingTier) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingTierRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Save(tier).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save sending tier: %w", err)
	}

	return nil
}

func (r *sendingTierRepository) SetActive(ctx context.Context, name string, active bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingTierRepository.SetActive")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).
		Model(&models.SendingTier{}).
		Where("name = ?", name).
		Update("is_active", active)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to update sending tier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return er.ErrTierNotFound
	}

	return nil
}
