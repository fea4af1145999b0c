package interfaces

import (
	"context"
	"time"

	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

type SendingTierRepository interface {
	GetByName(ctx context.Context, name string) (*models.SendingTier, error)
	GetAll(ctx context.Context, activeOnly bool) ([]*models.SendingTier, error)
	Save(ctx context.Context, tier *models.SendingTier) error
	SetActive(ctx context.Context, name string, active bool) error
}

type SendingLimitRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.EmailSendingLimit, error)
	GetByID(ctx context.Context, id string) (*models.EmailSendingLimit, error)
	GetAll(ctx context.Context) ([]*models.EmailSendingLimit, error)
	EnsureForUser(ctx context.Context, userID string, defaults models.SendingTier) (*models.EmailSendingLimit, error)
	Save(ctx context.Context, limit *models.EmailSendingLimit) error
	// UpdateWithLock loads the user's row under a row-level write lock, applies
	// fn and persists the result in the same transaction. This is the only
	// atomicity primitive the rate limiter relies on: concurrent attempts for
	// the same user serialize here. A non-nil error from fn aborts the
	// transaction; the stored row is left untouched and the error is returned.
	UpdateWithLock(ctx context.Context, userID string, fn func(limit *models.EmailSendingLimit) error) (*models.EmailSendingLimit, error)
	Stats(ctx context.Context) (*SendingStats, error)
}

type SendLogRepository interface {
	Create(ctx context.Context, log *models.EmailSendLog) error
	ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*models.EmailSendLog, error)
}

type ViolationRepository interface {
	Create(ctx context.Context, violation *models.SendingLimitViolation) error
	List(ctx context.Context, resolved *bool) ([]*models.SendingLimitViolation, error)
	GetByID(ctx context.Context, id string) (*models.SendingLimitViolation, error)
	Resolve(ctx context.Context, id, resolvedBy, adminNotes string) error
	CountOpen(ctx context.Context) (int64, error)
}

// SendingStats is the admin dashboard summary over all sending-limit rows
type SendingStats struct {
	TotalSentToday   int64 `json:"totalSentToday"`
	UsersAtLimit     int64 `json:"usersAtLimit"`
	UsersNearLimit   int64 `json:"usersNearLimit"`
	ActiveViolations int64 `json:"activeViolations"`
	TotalUsers       int64 `json:"totalUsers"`
	FreeTierUsers    int64 `json:"freeTierUsers"`
}
