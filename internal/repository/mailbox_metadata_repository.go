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

type mailboxMetadataRepository struct {
	db *gorm.DB
}

func NewMailboxMetadataRepository(db *gorm.DB) interfaces.MailboxMetadataRepository {
	return &mailboxMetadataRepository{db: db}
}

func (r *mailboxMetadataRepository) GetByEmail(ctx context.Context, email string) (*models.MailboxMetadata, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxMetadataRepository.GetByEmail")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var metadata models.MailboxMetadata
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&metadata)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, er.ErrMailboxNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get mailbox metadata: %w", result.Error)
	}

	return &metadata, nil
}

func (r *mailboxMetadataRepository) GetAll(ctx context.Context) ([]*models.MailboxMetadata, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxMetadataRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var rows []*models.MailboxMetadata
	if err := r.db.WithContext(ctx).Order("email asc").Find(&rows).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list mailbox metadata: %w", err)
	}

	return rows, nil
}

// Upsert overwrites the cache row keyed by email; the control plane is the
// source of truth so no field-level merging happens. Each call runs in its
// own short transaction so a full sweep never holds a long lock.
func (r *mailboxMetadataRepository) Upsert(ctx context.Context, metadata *models.MailboxMetadata) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxMetadataRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	metadata.LastSynced = time.Now().UTC()

	// Try to update first
	result := r.db.WithContext(ctx).
		Model(&models.MailboxMetadata{}).
		Where("email = ?", metadata.Email).
		Updates(map[string]interface{}{
			"quota_bytes": metadata.QuotaBytes,
			"usage_bytes": metadata.UsageBytes,
			"messages":    metadata.Messages,
			"active":      metadata.Active,
			"last_synced": metadata.LastSynced,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, fmt.Errorf("failed to update mailbox metadata: %w", result.Error)
	}

	// If no record was updated, create a new one
	if result.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).Create(metadata).Error; err != nil {
			tracing.TraceErr(span, err)
			return false, fmt.Errorf("failed to create mailbox metadata: %w", err)
		}
		return true, nil
	}

	return false, nil
}

func (r *mailboxMetadataRepository) DeleteByEmail(ctx context.Context, email string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxMetadataRepository.DeleteByEmail")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&models.MailboxMetadata{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to delete mailbox metadata: %w", err)
	}

	return nil
}
