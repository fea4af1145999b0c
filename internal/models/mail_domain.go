package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/internal/utils"
)

// MailDomain caches domain state pulled from mailcow
type MailDomain struct {
	ID           string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Domain       string    `gorm:"column:domain;type:varchar(255);uniqueIndex;not null" json:"domain"`
	IsPrimary    bool      `gorm:"column:is_primary;default:false" json:"isPrimary"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"isActive"`
	Description  *string   `gorm:"column:description;type:text" json:"description"`
	MaxMailboxes int       `gorm:"column:max_mailboxes;default:0" json:"maxMailboxes"`
	MaxAliases   int       `gorm:"column:max_aliases;default:0" json:"maxAliases"`
	QuotaBytes   int64     `gorm:"column:quota_bytes;default:0" json:"quotaBytes"`
	UsageBytes   int64     `gorm:"column:usage_bytes;default:0" json:"usageBytes"`
	LastSynced   time.Time `gorm:"column:last_synced;type:timestamp" json:"lastSynced"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (MailDomain) TableName() string {
	return "mail_domains"
}

func (d *MailDomain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = utils.GenerateNanoIDWithPrefix("mdom", 16)
	}
	return nil
}
