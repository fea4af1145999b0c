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

type domainCacheRepository struct {
	db *gorm.DB
}

func NewDomainCacheRepository(db *gorm.DB) interfaces.DomainCacheRepository {
	return &domainCacheRepository{db: db}
}

func (r *domainCacheRepository) GetByDomain(ctx context.Context, domain string) (*models.MailDomain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainCacheRepository.GetByDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var row models.MailDomain
	result := r.db.WithContext(ctx).Where("domain = ?", domain).First(&row)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, er.ErrDomainNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get mail domain: %w", result.Error)
	}

	return &row, nil
}

func (r *domainCacheRepository) GetAll(ctx context.Context) ([]*models.MailDomain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainCacheRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []*models.MailDomain
	if err := r.db.WithContext(ctx).Order("domain asc").Find(&rows).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list mail domains: %w", err)
	}

	return rows, nil
}

func (r *domainCacheRepository) Upsert(ctx context.Context, domain *models.MailDomain) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainCacheRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	domain.LastSynced = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.MailDomain{}).
		Where("domain = ?", domain.Domain).
		Updates(map[string]interface{}{
			"is_active":     domain.IsActive,
			"max_mailboxes": domain.MaxMailboxes,
			"max_aliases":   domain.MaxAliases,
			"quota_bytes":   domain.QuotaBytes,
			"usage_bytes":   domain.UsageBytes,
			"last_synced":   domain.LastSynced,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, fmt.Errorf("failed to update mail domain: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).Create(domain).Error; err != nil {
			tracing.TraceErr(span, err)
			return false, fmt.Errorf("failed to create mail domain: %w", err)
		}
		return true, nil
	}

	return false, nil
}

func (r *domainCacheRepository) DeleteByDomain(ctx context.Context, domain string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "domainCacheRepository.DeleteByDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		Delete(&models.MailDomain{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to delete mail domain: %w", err)
	}

	return nil
}
