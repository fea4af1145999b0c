package interfaces

import (
	"context"

	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

// SyncService reconciles mailcow state into the local cache tables. The
// control plane is authoritative: local rows are overwritten, never merged.
// Sweeps are idempotent; a failed or interrupted sweep is retried whole.
type SyncService interface {
	SyncAllMailboxes(ctx context.Context) (*SyncReport, error)
	SyncMailbox(ctx context.Context, email string) (*models.MailboxMetadata, error)
	SyncAllAliases(ctx context.Context) (*SyncReport, error)
	SyncAllDomains(ctx context.Context) (*SyncReport, error)
}

// SyncReport summarizes one reconciliation sweep. Per-item failures are
// collected here rather than aborting the batch.
type SyncReport struct {
	Total   int           `json:"total"`
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Failed  []SyncFailure `json:"failed"`
}

type SyncFailure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}
