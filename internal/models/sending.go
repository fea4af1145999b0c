package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/internal/utils"
)

// Violation types recorded when a send attempt is denied
const (
	ViolationTypeDailyLimit  = "daily_limit"
	ViolationTypeHourlyLimit = "hourly_limit"
)

// Send log statuses
const (
	SendStatusSent    = "sent"
	SendStatusBlocked = "blocked"
	SendStatusFailed  = "failed"
)

// Blocked reasons stored on denied send attempts
const (
	BlockedReasonSendingDisabled = "sending_disabled"
	BlockedReasonDailyLimit      = "daily_limit_exceeded"
	BlockedReasonHourlyLimit     = "hourly_limit_exceeded"
)

// SendingTier is a named bundle of daily/hourly send caps
type SendingTier struct {
	ID           string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name         string    `gorm:"column:name;type:varchar(50);uniqueIndex;not null" json:"name"`
	DisplayName  string    `gorm:"column:display_name;type:varchar(255);not null" json:"displayName"`
	DailyLimit   int       `gorm:"column:daily_limit;not null" json:"dailyLimit"`
	HourlyLimit  int       `gorm:"column:hourly_limit;not null" json:"hourlyLimit"`
	PriceMonthly float64   `gorm:"column:price_monthly;type:numeric(10,2);default:0" json:"priceMonthly"`
	Features     JSONMap   `gorm:"column:features;type:jsonb" json:"features"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"isActive"`
	SortOrder    int       `gorm:"column:sort_order;default:0" json:"sortOrder"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (SendingTier) TableName() string {
	return "sending_tiers"
}

func (t *SendingTier) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = utils.GenerateNanoIDWithPrefix("tier", 16)
	}
	return nil
}

// EmailSendingLimit holds the per-user counters and effective caps. Tier limits
// are denormalized onto this row at assignment time; editing a tier afterwards
// does not change rows already assigned to it until they are re-assigned.
type EmailSendingLimit struct {
	ID                 string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID             string    `gorm:"column:user_id;type:uuid;uniqueIndex;not null" json:"userId"`
	TierName           string    `gorm:"column:tier_name;type:varchar(50);index;default:free" json:"tierName"`
	DailyLimit         int       `gorm:"column:daily_limit;default:50" json:"dailyLimit"`
	HourlyLimit        int       `gorm:"column:hourly_limit;default:10" json:"hourlyLimit"`
	EmailsSentToday    int       `gorm:"column:emails_sent_today;default:0" json:"emailsSentToday"`
	EmailsSentThisHour int       `gorm:"column:emails_sent_this_hour;default:0" json:"emailsSentThisHour"`
	LastResetDate      time.Time `gorm:"column:last_reset_date;type:date" json:"lastResetDate"`
	LastResetHour      time.Time `gorm:"column:last_reset_hour;type:timestamp" json:"lastResetHour"`
	IsSendingEnabled   bool      `gorm:"column:is_sending_enabled;default:true" json:"isSendingEnabled"`
	CustomLimitReason  *string   `gorm:"column:custom_limit_reason;type:text" json:"customLimitReason"`
	CreatedAt          time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (EmailSendingLimit) TableName() string {
	return "email_sending_limits"
}

func (l *EmailSendingLimit) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = utils.GenerateNanoIDWithPrefix("eslim", 16)
	}
	return nil
}

// UsagePercent reports daily consumption against the daily cap
func (l *EmailSendingLimit) UsagePercent() float64 {
	if l.DailyLimit == 0 {
		return 0
	}
	return float64(l.EmailsSentToday) / float64(l.DailyLimit) * 100
}

// EmailSendLog is an append-only record of every send attempt
type EmailSendLog struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;type:uuid;index;not null" json:"userId"`
	RecipientEmail string    `gorm:"column:recipient_email;type:varchar(255);not null" json:"recipientEmail"`
	RecipientCount int       `gorm:"column:recipient_count;default:1" json:"recipientCount"`
	Subject        string    `gorm:"column:subject;type:varchar(998)" json:"subject"`
	Status         string    `gorm:"column:status;type:varchar(50);index;default:sent" json:"status"`
	FailureReason  *string   `gorm:"column:failure_reason;type:text" json:"failureReason"`
	BlockedReason  *string   `gorm:"column:blocked_reason;type:text" json:"blockedReason"`
	IPAddress      string    `gorm:"column:ip_address;type:varchar(45)" json:"ipAddress"`
	UserAgent      string    `gorm:"column:user_agent;type:text" json:"userAgent"`
	SentAt         time.Time `gorm:"column:sent_at;type:timestamp;index;default:current_timestamp" json:"sentAt"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (EmailSendLog) TableName() string {
	return "email_send_logs"
}

func (l *EmailSendLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// SendingLimitViolation is created when a send attempt is denied for limit
// exhaustion; limit_at_time snapshots the cap that was in force
type SendingLimitViolation struct {
	ID               string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           string     `gorm:"column:user_id;type:uuid;index;not null" json:"userId"`
	ViolationType    string     `gorm:"column:violation_type;type:varchar(50);not null" json:"violationType"`
	AttemptedCount   int        `gorm:"column:attempted_count;not null" json:"attemptedCount"`
	LimitAtTime      int        `gorm:"column:limit_at_time;not null" json:"limitAtTime"`
	ViolationDetails JSONMap    `gorm:"column:violation_details;type:jsonb" json:"violationDetails"`
	ActionTaken      string     `gorm:"column:action_taken;type:varchar(50);default:logged" json:"actionTaken"`
	AdminNotes       *string    `gorm:"column:admin_notes;type:text" json:"adminNotes"`
	IsResolved       bool       `gorm:"column:is_resolved;default:false" json:"isResolved"`
	ResolvedAt       *time.Time `gorm:"column:resolved_at;type:timestamp" json:"resolvedAt"`
	ResolvedBy       *string    `gorm:"column:resolved_by;type:varchar(255)" json:"resolvedBy"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:timestamp;index;default:current_timestamp" json:"createdAt"`
}

func (SendingLimitViolation) TableName() string {
	return "sending_limit_violations"
}

func (v *SendingLimitViolation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
