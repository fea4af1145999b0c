package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/internal/utils"
)

// MailboxMetadata caches quota state pulled from mailcow. Rows are derived
// state: the control plane wins on every sync, no field-level merging.
type MailboxMetadata struct {
	ID         string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email      string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	UserID     *string   `gorm:"column:user_id;type:uuid;index" json:"userId"`
	QuotaBytes int64     `gorm:"column:quota_bytes;default:0" json:"quotaBytes"`
	UsageBytes int64     `gorm:"column:usage_bytes;default:0" json:"usageBytes"`
	Messages   int64     `gorm:"column:messages;default:0" json:"messages"`
	Active     bool      `gorm:"column:active;default:true" json:"active"`
	LastSynced time.Time `gorm:"column:last_synced;type:timestamp" json:"lastSynced"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (MailboxMetadata) TableName() string {
	return "mailbox_metadata"
}

func (m *MailboxMetadata) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("mbox", 16)
	}
	return nil
}

// QuotaUsedPercentage reports disk usage against the mailbox quota
func (m *MailboxMetadata) QuotaUsedPercentage() float64 {
	if m.QuotaBytes == 0 {
		return 0
	}
	return float64(m.UsageBytes) / float64(m.QuotaBytes) * 100
}
