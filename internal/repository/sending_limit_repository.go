package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

type sendingLimitRepository struct {
	db *gorm.DB
}

func NewSendingLimitRepository(db *gorm.DB) interfaces.SendingLimitRepository {
	return &sendingLimitRepository{db: db}
}

func (r *sendingLimitRepository) GetByUserID(ctx context.Context, userID string) (*models.EmailSendingLimit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingLimitRepository.GetByUserID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUserId(span, userID)

	var limit models.EmailSendingLimit
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&limit)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, er.ErrSendingLimitNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get sending limit: %w", result.Error)
	}

	return &limit, nil
}

func (r *sendingLimitRepository) GetByID(ctx context.Context, id string) (*models.EmailSendingLimit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingLimitRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var limit models.EmailSendingLimit
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&limit)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, er.ErrSendingLimitNotFound
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get sending limit: %w", result.Error)
	}

	return &limit, nil
}

func (r *sendingLimitRepository) GetAll(ctx context.Context) ([]*models.EmailSendingLimit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingLimitRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var limits []*models.EmailSendingLimit
	if err := r.db.WithContext(ctx).Order("emails_sent_today desc").Find(&limits).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list sending limits: %w", err)
	}

	return limits, nil
}

// EnsureForUser returns the user's limit row, creating one from the given
// tier defaults when the user has none yet. Two concurrent first attempts
// both miss the read; the loser's insert hits the user_id unique index and
// falls back to re-reading the winner's row.
func (r *sendingLimitRepository) EnsureForUser(ctx context.Context, userID string, defaults models.SendingTier) (*models.EmailSendingLimit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingLimitRepository.EnsureForUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUserId(span, userID)

	existing, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if err != er.ErrSendingLimitNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	limit := &models.EmailSendingLimit{
		UserID:           userID,
		TierName:         defaults.Name,
		DailyLimit:       defaults.DailyLimit,
		HourlyLimit:      defaults.HourlyLimit,
		LastResetDate:    now.Truncate(24 * time.Hour),
		LastResetHour:    now,
		IsSendingEnabled: true,
	}
	if err := r.db.WithContext(ctx).Create(limit).Error; err != nil {
		if isDuplicateKeyError(err) {
			return r.GetByUserID(ctx, userID)
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to create sending limit: %w", err)
	}

	return limit, nil
}

// postgres unique_violation
const uniqueViolationCode = "23505"

// isDuplicateKeyError recognizes a unique-constraint violation from either
// postgres driver in use (pgx under gorm, lib/pq) or gorm's own translation
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return true
	}
	return false
}

func (r *sendingLimitRepository) Save(ctx context.Context, limit *models.EmailSendingLimit) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingLimitRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	limit.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(limit).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save sending limit: %w", err)
	}

	return nil
}

// UpdateWithLock serializes concurrent mutations of one user's counters. The
// row is loaded with SELECT ... FOR UPDATE, fn mutates it, and the write
// commits in the same transaction, so "read counters, roll over, compare,
// write counters" is atomic per user. Cross-user attempts do not contend.
func (r *sendingLimitRepository) UpdateWithLock(ctx context.Context, userID string, fn func(limit *models.EmailSendingLimit) error) (*models.EmailSendingLimit, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingLimitRepository.UpdateWithLock")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUserId(span, userID)

	var limit models.EmailSendingLimit
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&limit)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				return er.ErrSendingLimitNotFound
			}
			return result.Error
		}

		if err := fn(&limit); err != nil {
			return err
		}

		limit.UpdatedAt = time.Now().UTC()
		return tx.Save(&limit).Error
	})
	if err != nil {
		if err != er.ErrSendingLimitNotFound {
			tracing.TraceErr(span, err)
		}
		return nil, err
	}

	return &limit, nil
}

func (r *sendingLimitRepository) Stats(ctx context.Context) (*interfaces.SendingStats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sendingLimitRepository.Stats")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	db := r.db.WithContext(ctx)
	stats := &interfaces.SendingStats{}

	row := db.Model(&models.EmailSendingLimit{}).
		Select("coalesce(sum(emails_sent_today), 0)").
		Row()
	if err := row.Scan(&stats.TotalSentToday); err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to sum sent today: %w", err)
	}

	counts := []struct {
		dest  *int64
		scope func(*gorm.DB) *gorm.DB
	}{
		{&stats.UsersAtLimit, func(q *gorm.DB) *gorm.DB {
			return q.Where("emails_sent_today >= daily_limit")
		}},
		{&stats.UsersNearLimit, func(q *gorm.DB) *gorm.DB {
			return q.Where("emails_sent_today >= daily_limit * 0.8").
				Where("emails_sent_today < daily_limit")
		}},
		{&stats.TotalUsers, func(q *gorm.DB) *gorm.DB { return q }},
		{&stats.FreeTierUsers, func(q *gorm.DB) *gorm.DB {
			return q.Where("tier_name = ?", "free")
		}},
	}
	for _, c := range counts {
		if err := c.scope(db.Model(&models.EmailSendingLimit{})).Count(c.dest).Error; err != nil {
			tracing.TraceErr(span, err)
			return nil, fmt.Errorf("failed to count sending limits: %w", err)
		}
	}

	if err := db.Model(&models.SendingLimitViolation{}).
		Where("is_resolved = ?", false).
		Count(&stats.ActiveViolations).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to count violations: %w", err)
	}

	return stats, nil
}
