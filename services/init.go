package services

import (
	"github.com/NeonAnubis/afrimail-backend/interfaces"
	"github.com/NeonAnubis/afrimail-backend/internal/config"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/repository"
	"github.com/NeonAnubis/afrimail-backend/services/mailcow"
	"github.com/NeonAnubis/afrimail-backend/services/ratelimit"
	"github.com/NeonAnubis/afrimail-backend/services/sync"
	"github.com/NeonAnubis/afrimail-backend/services/tiers"
)

type Services struct {
	TierService        interfaces.TierService
	RateLimiterService interfaces.RateLimiterService
	MailcowClient      interfaces.MailcowClient
	SyncService        interfaces.SyncService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) *Services {
	tierService := tiers.NewTierService(log, repos.SendingTierRepository, repos.SendingLimitRepository)
	mailcowClient := mailcow.NewMailcowClient(cfg.MailcowConfig, log)

	return &Services{
		TierService: tierService,
		RateLimiterService: ratelimit.NewRateLimiterService(
			log,
			repos.SendingLimitRepository,
			repos.SendLogRepository,
			repos.ViolationRepository,
			tierService,
		),
		MailcowClient: mailcowClient,
		SyncService: sync.NewSyncService(
			log,
			mailcowClient,
			repos.MailboxMetadataRepository,
			repos.AliasCacheRepository,
			repos.DomainCacheRepository,
		),
	}
}
