package interfaces

import (
	"context"
	"strings"
)

// MailcowClient wraps the mailcow admin API. The configured base URL already
// carries the /api/v1 segment; implementations append resource paths only.
// Numeric fields in mailcow responses are untrusted and coerced before they
// reach these typed structs.
type MailcowClient interface {
	IsConfigured() bool
	HealthCheck(ctx context.Context) bool
	GetStatus(ctx context.Context) (map[string]interface{}, error)

	GetDomains(ctx context.Context) ([]MailcowDomain, error)
	GetDomain(ctx context.Context, domain string) (*MailcowDomain, error)
	CreateDomain(ctx context.Context, req MailcowDomainCreate) error
	UpdateDomain(ctx context.Context, domain string, req MailcowDomainUpdate) error
	DeleteDomain(ctx context.Context, domain string) error

	GetMailboxes(ctx context.Context, domain string) (*MailcowMailboxList, error)
	GetMailbox(ctx context.Context, email string) (*MailcowMailbox, error)
	CreateMailbox(ctx context.Context, req MailcowMailboxCreate) error
	UpdateMailbox(ctx context.Context, email string, req MailcowMailboxUpdate) error
	UpdateMailboxes(ctx context.Context, emails []string, req MailcowMailboxUpdate) error
	DeleteMailbox(ctx context.Context, email string) error
	ActivateMailbox(ctx context.Context, email string) error
	DeactivateMailbox(ctx context.Context, email string) error
	UpdateMailboxQuota(ctx context.Context, email string, quotaBytes int64) error
	SetMailboxPassword(ctx context.Context, email, newPassword string) error

	GetAliases(ctx context.Context, domain string) ([]MailcowAlias, error)
	GetAlias(ctx context.Context, aliasID int) (*MailcowAlias, error)
	CreateAlias(ctx context.Context, req MailcowAliasCreate) error
	UpdateAlias(ctx context.Context, aliasID int, req MailcowAliasUpdate) error
	DeleteAlias(ctx context.Context, aliasID int) error

	GetDKIM(ctx context.Context, domain string) (map[string]interface{}, error)
	CreateDKIM(ctx context.Context, domain, selector string, keySize int) error
	DeleteDKIM(ctx context.Context, domain string) error

	GetLogs(ctx context.Context, logType string, count int) ([]interface{}, error)
	GetRspamdStats(ctx context.Context) ([]interface{}, error)
	GetQuarantine(ctx context.Context) ([]interface{}, error)
	GetMailQueue(ctx context.Context) ([]interface{}, error)

	GetRateLimits(ctx context.Context, mailbox string) (map[string]interface{}, error)
	SetRateLimit(ctx context.Context, mailbox string, value int, frame string) error
}

// MailcowMailboxList separates entries the client could safely type from
// entries it could not. Malformed entries never abort a listing; callers
// decide whether to report or drop them.
type MailcowMailboxList struct {
	Mailboxes []MailcowMailbox `json:"mailboxes"`
	Malformed []MalformedEntry `json:"malformed,omitempty"`
}

// MalformedEntry identifies a remote record rejected at the typing boundary
type MalformedEntry struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// MailcowMailbox is the typed projection of a mailcow mailbox entry
type MailcowMailbox struct {
	Username      string `json:"username"`
	Domain        string `json:"domain"`
	Name          string `json:"name"`
	QuotaBytes    int64  `json:"quotaBytes"`
	UsedBytes     int64  `json:"usedBytes"`
	Messages      int64  `json:"messages"`
	Active        bool   `json:"active"`
	LastIMAPLogin string `json:"lastImapLogin,omitempty"`
	LastSMTPLogin string `json:"lastSmtpLogin,omitempty"`
	Created       string `json:"created,omitempty"`
	Modified      string `json:"modified,omitempty"`
}

// Email returns the full address for the mailbox
func (m MailcowMailbox) Email() string {
	return m.Username + "@" + m.Domain
}

// QuotaPercentage reports usage against the quota
func (m MailcowMailbox) QuotaPercentage() float64 {
	if m.QuotaBytes == 0 {
		return 0
	}
	return float64(m.UsedBytes) / float64(m.QuotaBytes) * 100
}

type MailcowDomain struct {
	Domain             string `json:"domain"`
	Description        string `json:"description"`
	AliasesLeft        int    `json:"aliasesLeft"`
	MailboxesLeft      int    `json:"mailboxesLeft"`
	MaxAliases         int    `json:"maxAliases"`
	MaxMailboxes       int    `json:"maxMailboxes"`
	MaxQuotaPerMailbox int64  `json:"maxQuotaPerMailbox"`
	QuotaBytes         int64  `json:"quotaBytes"`
	UsedBytes          int64  `json:"usedBytes"`
	Active             bool   `json:"active"`
	BackupMX           bool   `json:"backupMx"`
	RelayAllRecipients bool   `json:"relayAllRecipients"`
	Created            string `json:"created,omitempty"`
	Modified           string `json:"modified,omitempty"`
}

type MailcowAlias struct {
	ID       int    `json:"id"`
	Address  string `json:"address"`
	Goto     string `json:"goto"`
	Domain   string `json:"domain"`
	Active   bool   `json:"active"`
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// IsCatchAll reports whether the alias is a domain catch-all
func (a MailcowAlias) IsCatchAll() bool {
	return strings.HasPrefix(a.Address, "@")
}

// TargetAddresses splits the comma-separated goto field
func (a MailcowAlias) TargetAddresses() []string {
	var targets []string
	for _, addr := range strings.Split(a.Goto, ",") {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			targets = append(targets, trimmed)
		}
	}
	return targets
}

type MailcowMailboxCreate struct {
	LocalPart           string `json:"localPart"`
	Domain              string `json:"domain"`
	Password            string `json:"password"`
	Name                string `json:"name"`
	QuotaBytes          int64  `json:"quotaBytes"`
	Active              bool   `json:"active"`
	ForcePasswordUpdate bool   `json:"forcePasswordUpdate"`
}

type MailcowMailboxUpdate struct {
	Name       *string `json:"name,omitempty"`
	QuotaBytes *int64  `json:"quotaBytes,omitempty"`
	Password   *string `json:"password,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

type MailcowDomainCreate struct {
	Domain                  string `json:"domain"`
	Description             string `json:"description"`
	MaxAliases              int    `json:"maxAliases"`
	MaxMailboxes            int    `json:"maxMailboxes"`
	MaxQuotaPerMailboxBytes int64  `json:"maxQuotaPerMailboxBytes"`
	TotalQuotaBytes         int64  `json:"totalQuotaBytes"`
	DefaultQuotaBytes       int64  `json:"defaultQuotaBytes"`
	Active                  bool   `json:"active"`
}

type MailcowDomainUpdate struct {
	Description             *string `json:"description,omitempty"`
	MaxAliases              *int    `json:"maxAliases,omitempty"`
	MaxMailboxes            *int    `json:"maxMailboxes,omitempty"`
	MaxQuotaPerMailboxBytes *int64  `json:"maxQuotaPerMailboxBytes,omitempty"`
	TotalQuotaBytes         *int64  `json:"totalQuotaBytes,omitempty"`
	Active                  *bool   `json:"active,omitempty"`
}

type MailcowAliasCreate struct {
	Address string `json:"address"`
	Goto    string `json:"goto"`
	Active  bool   `json:"active"`
}

type MailcowAliasUpdate struct {
	Address *string `json:"address,omitempty"`
	Goto    *string `json:"goto,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}
