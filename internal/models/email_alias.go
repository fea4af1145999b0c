package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/internal/utils"
)

// EmailAlias caches alias state pulled from mailcow, keyed by alias address.
// MailcowID links the row back to the control plane entry.
type EmailAlias struct {
	ID                 string         `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	AliasAddress       string         `gorm:"column:alias_address;type:varchar(255);uniqueIndex;not null" json:"aliasAddress"`
	TargetAddresses    pq.StringArray `gorm:"column:target_addresses;type:text[];not null" json:"targetAddresses"`
	IsDistributionList bool           `gorm:"column:is_distribution_list;default:false" json:"isDistributionList"`
	IsCatchAll         bool           `gorm:"column:is_catch_all;default:false" json:"isCatchAll"`
	Description        *string        `gorm:"column:description;type:text" json:"description"`
	Active             bool           `gorm:"column:active;index;default:true" json:"active"`
	CreatedBy          *string        `gorm:"column:created_by;type:varchar(255)" json:"createdBy"`
	MailcowID          *string        `gorm:"column:mailcow_id;type:varchar(50);index" json:"mailcowId"`
	LastSynced         time.Time      `gorm:"column:last_synced;type:timestamp" json:"lastSynced"`
	CreatedAt          time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (EmailAlias) TableName() string {
	return "email_aliases"
}

func (a *EmailAlias) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("alias", 16)
	}
	return nil
}
