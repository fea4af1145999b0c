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

type violationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) interfaces.ViolationRepository {
	return &violationRepository{db: db}
}

func (r *violationRepository) Create(ctx context.Context, violation *models.SendingLimitViolation) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "violationRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUserId(span, violation.UserID)

	if err := r.db.WithContext(ctx).Create(violation).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to create violation: %w", err)
	}

	return nil
}

func (r *violationRepository) List(ctx context.Context, resolved *bool) ([]*models.SendingLimitViolation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "violationRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	query := r.db.WithContext(ctx).Order("created_at desc")
	if resolved != nil {
		query = query.Where("is_resolved = ?", *resolved)
	}

	var violations []*models.SendingLimitViolation
	if err := query.Find(&violations).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}

	return violations, nil
}

func (r *violationRepository) GetByID(ctx context.Context, id string) (*models.SendingLimitViolation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "violationRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var violation models.SendingLimitViolation
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&violation)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, er.ErrViolationNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get violation: %w", result.Error)
	}

	return &violation, nil
}

func (r *violationRepository) Resolve(ctx context.Context, id, resolvedBy, adminNotes string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "violationRepository.Resolve")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.SendingLimitViolation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_at": now,
			"resolved_by": resolvedBy,
			"admin_notes": adminNotes,
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to resolve violation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return er.ErrViolationNotFound
	}

	return nil
}

func (r *violationRepository) CountOpen(ctx context.Context) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "violationRepository.CountOpen")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SendingLimitViolation{}).
		Where("is_resolved = ?", false).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return 0, fmt.Errorf("failed to count open violations: %w", err)
	}

	return count, nil
}
