package sync

import (
	"context"
	"strconv"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

type syncService struct {
	log           logger.Logger
	mailcowClient interfaces.MailcowClient
	mailboxRepo   interfaces.MailboxMetadataRepository
	aliasRepo     interfaces.AliasCacheRepository
	domainRepo    interfaces.DomainCacheRepository
}

func NewSyncService(
	log logger.Logger,
	mailcowClient interfaces.MailcowClient,
	mailboxRepo interfaces.MailboxMetadataRepository,
	aliasRepo interfaces.AliasCacheRepository,
	domainRepo interfaces.DomainCacheRepository,
) interfaces.SyncService {
	return &syncService{
		log:           log,
		mailcowClient: mailcowClient,
		mailboxRepo:   mailboxRepo,
		aliasRepo:     aliasRepo,
		domainRepo:    domainRepo,
	}
}

// SyncAllMailboxes pulls every mailbox from mailcow and overwrites the local
// cache rows. One bad item never aborts the sweep: malformed remote entries
// and per-row upsert failures are both collected into the report.
func (s *syncService) SyncAllMailboxes(ctx context.Context) (*interfaces.SyncReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.SyncAllMailboxes")
	defer span.Finish()
	tracing.TagComponentService(span)

	list, err := s.mailcowClient.GetMailboxes(ctx, "")
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	report := &interfaces.SyncReport{}
	for _, malformed := range list.Malformed {
		report.Total++
		report.Failed = append(report.Failed, interfaces.SyncFailure{
			Key:   malformed.Key,
			Error: malformed.Reason,
		})
	}

	for _, mailbox := range list.Mailboxes {
		report.Total++
		created, err := s.upsertMailbox(ctx, mailbox)
		if err != nil {
			report.Failed = append(report.Failed, interfaces.SyncFailure{
				Key:   mailbox.Email(),
				Error: err.Error(),
			})
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	span.LogFields(
		tracingLog.Int("total", report.Total),
		tracingLog.Int("created", report.Created),
		tracingLog.Int("updated", report.Updated),
		tracingLog.Int("failed", len(report.Failed)),
	)
	s.logReport("mailboxes", report)

	return report, nil
}

// SyncMailbox refreshes a single cache row from the control plane
func (s *syncService) SyncMailbox(ctx context.Context, email string) (*models.MailboxMetadata, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.SyncMailbox")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("email", email)

	mailbox, err := s.mailcowClient.GetMailbox(ctx, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if mailbox == nil {
		return nil, er.ErrMailboxNotFound
	}

	if _, err := s.upsertMailbox(ctx, *mailbox); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return s.mailboxRepo.GetByEmail(ctx, email)
}

func (s *syncService) upsertMailbox(ctx context.Context, mailbox interfaces.MailcowMailbox) (bool, error) {
	row := &models.MailboxMetadata{
		Email:      mailbox.Email(),
		QuotaBytes: mailbox.QuotaBytes,
		UsageBytes: mailbox.UsedBytes,
		Messages:   mailbox.Messages,
		Active:     mailbox.Active,
	}
	return s.mailboxRepo.Upsert(ctx, row)
}

func (s *syncService) SyncAllAliases(ctx context.Context) (*interfaces.SyncReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.SyncAllAliases")
	defer span.Finish()
	tracing.TagComponentService(span)

	aliases, err := s.mailcowClient.GetAliases(ctx, "")
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	report := &interfaces.SyncReport{}
	for _, alias := range aliases {
		report.Total++
		if alias.Address == "" {
			report.Failed = append(report.Failed, interfaces.SyncFailure{
				Key:   "alias#" + strconv.Itoa(alias.ID),
				Error: "missing alias address",
			})
			continue
		}

		mailcowID := strconv.Itoa(alias.ID)
		targets := alias.TargetAddresses()
		row := &models.EmailAlias{
			AliasAddress:       alias.Address,
			TargetAddresses:    targets,
			IsDistributionList: len(targets) > 1,
			IsCatchAll:         alias.IsCatchAll(),
			Active:             alias.Active,
			MailcowID:          &mailcowID,
		}

		created, err := s.aliasRepo.Upsert(ctx, row)
		if err != nil {
			report.Failed = append(report.Failed, interfaces.SyncFailure{
				Key:   alias.Address,
				Error: err.Error(),
			})
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	s.logReport("aliases", report)
	return report, nil
}

func (s *syncService) SyncAllDomains(ctx context.Context) (*interfaces.SyncReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.SyncAllDomains")
	defer span.Finish()
	tracing.TagComponentService(span)

	domains, err := s.mailcowClient.GetDomains(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	report := &interfaces.SyncReport{}
	for _, domain := range domains {
		report.Total++
		if domain.Domain == "" {
			report.Failed = append(report.Failed, interfaces.SyncFailure{
				Key:   "domain",
				Error: "missing domain name",
			})
			continue
		}

		row := &models.MailDomain{
			Domain:       domain.Domain,
			IsActive:     domain.Active,
			MaxMailboxes: domain.MaxMailboxes,
			MaxAliases:   domain.MaxAliases,
			QuotaBytes:   domain.QuotaBytes,
			UsageBytes:   domain.UsedBytes,
		}

		created, err := s.domainRepo.Upsert(ctx, row)
		if err != nil {
			report.Failed = append(report.Failed, interfaces.SyncFailure{
				Key:   domain.Domain,
				Error: err.Error(),
			})
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	s.logReport("domains", report)
	return report, nil
}

func (s *syncService) logReport(kind string, report *interfaces.SyncReport) {
	if len(report.Failed) > 0 {
		s.log.Warnf("synced %s: %d total, %d created, %d updated, %d failed",
			kind, report.Total, report.Created, report.Updated, len(report.Failed))
		return
	}
	s.log.Infof("synced %s: %d total, %d created, %d updated",
		kind, report.Total, report.Created, report.Updated)
}
