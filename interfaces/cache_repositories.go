package interfaces

import (
	"context"

	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

type MailboxMetadataRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.MailboxMetadata, error)
	GetAll(ctx context.Context) ([]*models.MailboxMetadata, error)
	// Upsert overwrites quota/usage/last_synced on the row keyed by email,
	// creating it when absent. Returns true when a new row was created.
	Upsert(ctx context.Context, metadata *models.MailboxMetadata) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type AliasCacheRepository interface {
	GetByAddress(ctx context.Context, address string) (*models.EmailAlias, error)
	GetAll(ctx context.Context) ([]*models.EmailAlias, error)
	Upsert(ctx context.Context, alias *models.EmailAlias) (bool, error)
	DeleteByAddress(ctx context.Context, address string) error
}

type DomainCacheRepository interface {
	GetByDomain(ctx context.Context, domain string) (*models.MailDomain, error)
	GetAll(ctx context.Context) ([]*models.MailDomain, error)
	Upsert(ctx context.Context, domain *models.MailDomain) (bool, error)
	DeleteByDomain(ctx context.Context, domain string) error
}
