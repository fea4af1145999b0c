package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

type aliasCacheRepository struct {
	db *gorm.DB
}

func NewAliasCacheRepository(db *gorm.DB) interfaces.AliasCacheRepository {
	return &aliasCacheRepository{db: db}
}

func (r *aliasCacheRepository) GetByAddress(ctx context.Context, address string) (*models.EmailAlias, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aliasCacheRepository.GetByAddress")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var alias models.EmailAlias
	result := r.db.WithContext(ctx).Where("alias_address = ?", address).First(&alias)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, er.ErrAliasNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get alias: %w", result.Error)
	}

	return &alias, nil
}

func (r *aliasCacheRepository) GetAll(ctx context.Context) ([]*models.EmailAlias, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aliasCacheRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var aliases []*models.EmailAlias
	if err := r.db.WithContext(ctx).Order("alias_address asc").Find(&aliases).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}

	return aliases, nil
}

func (r *aliasCacheRepository) Upsert(ctx context.Context, alias *models.EmailAlias) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aliasCacheRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	alias.LastSynced = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.EmailAlias{}).
		Where("alias_address = ?", alias.AliasAddress).
		Updates(map[string]interface{}{
			"target_addresses": alias.TargetAddresses,
			"is_catch_all":     alias.IsCatchAll,
			"active":           alias.Active,
			"mailcow_id":       alias.MailcowID,
			"last_synced":      alias.LastSynced,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, fmt.Errorf("failed to update alias: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).Create(alias).Error; err != nil {
			tracing.TraceErr(span, err)
			return false, fmt.Errorf("failed to create alias: %w", err)
		}
		return true, nil
	}

	return false, nil
}

func (r *aliasCacheRepository) DeleteByAddress(ctx context.Context, address string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aliasCacheRepository.DeleteByAddress")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).
		Where("alias_address = ?", address).
		Delete(&models.EmailAlias{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to delete alias: %w", err)
	}

	return nil
}
