package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

type sendLogRepository struct {
	db *gorm.DB
}

func NewSendLogRepository(db *gorm.DB) interfaces.SendLogRepository {
	return &sendLogRepository{db: db}
}

// Create appends a send-attempt record. Rows are never updated afterwards.
func (r *sendLogRepository) Create(ctx context.Context, log *models.EmailSendLog) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendLogRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUserId(span, log.UserID)

	if log.SentAt.IsZero() {
		log.SentAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to create send log: %w", err)
	}

	return nil
}

func (r *sendLogRepository) ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*models.EmailSendLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendLogRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUserId(span, userID)

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("sent_at >= ?", since).
		Order("sent_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var logs []*models.EmailSendLog
	if err := query.Find(&logs).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list send logs: %w", err)
	}

	return logs, nil
}
