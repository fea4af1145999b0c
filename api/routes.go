package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/NeonAnubis/afrimail-backend/api/handlers"
	"github.com/NeonAnubis/afrimail-backend/api/middleware"
	"github.com/NeonAnubis/afrimail-backend/internal/repository"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
	"github.com/NeonAnubis/afrimail-backend/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	// Health endpoints stay outside the authenticated group
	r.GET("/health", handlers.HealthCheck)
	r.GET("/health/mailserver", handlers.MailServerHealth(s.MailcowClient))

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-AFRIMAIL-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TracingMiddleware())
	{
		// Send gate, called by the submission path on every outbound message
		emails := api.Group("/emails")
		{
			emails.POST("/send-attempt", handlers.AttemptSend(s.RateLimiterService))
		}

		// Tier catalog
		tiers := api.Group("/tiers")
		{
			tiers.GET("", handlers.ListTiers(s.TierService))
			tiers.GET("/:name", handlers.GetTier(s.TierService))
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole("admin"))
		{
			// Tier catalog management
			admin.POST("/tiers", handlers.SaveTier(s.TierService))
			admin.DELETE("/tiers/:name", handlers.DeactivateTier(s.TierService))

			// Per-user sending limits
			adminSending := admin.Group("/sending")
			{
				adminSending.GET("/stats", handlers.SendingStats(repos.SendingLimitRepository))
				adminSending.GET("/users", handlers.ListSendingLimits(repos.SendingLimitRepository))
				adminSending.GET("/users/:userId", handlers.GetSendingLimit(repos.SendingLimitRepository))
				adminSending.PUT("/users/:userId", handlers.UpdateSendingLimits(s.RateLimiterService))
				adminSending.POST("/users/:userId/tier", handlers.AssignTier(s.TierService))
				adminSending.POST("/users/:userId/suspend", handlers.SuspendSending(s.RateLimiterService))
				adminSending.POST("/users/:userId/resume", handlers.ResumeSending(s.RateLimiterService))
				adminSending.POST("/users/:userId/reset", handlers.ResetSendingCounters(s.RateLimiterService))
				adminSending.GET("/users/:userId/logs", handlers.ListSendLogs(repos.SendLogRepository))
				adminSending.GET("/violations", handlers.ListViolations(repos.ViolationRepository))
				adminSending.POST("/violations/:id/resolve", handlers.ResolveViolation(repos.ViolationRepository))
			}

			// Mailcow control plane proxy
			mailserver := admin.Group("/mailserver")
			{
				mailserver.GET("/status", handlers.MailServerStatus(s.MailcowClient))

				mailserver.GET("/domains", handlers.ListRemoteDomains(s.MailcowClient))
				mailserver.POST("/domains", handlers.CreateRemoteDomain(s.MailcowClient))
				mailserver.GET("/domains/:domain", handlers.GetRemoteDomain(s.MailcowClient))
				mailserver.PUT("/domains/:domain", handlers.UpdateRemoteDomain(s.MailcowClient))
				mailserver.DELETE("/domains/:domain", handlers.DeleteRemoteDomain(s.MailcowClient))
				mailserver.GET("/domains/:domain/dkim", handlers.GetRemoteDKIM(s.MailcowClient))
				mailserver.POST("/domains/:domain/dkim", handlers.CreateRemoteDKIM(s.MailcowClient))
				mailserver.DELETE("/domains/:domain/dkim", handlers.DeleteRemoteDKIM(s.MailcowClient))

				mailserver.GET("/mailboxes", handlers.ListRemoteMailboxes(s.MailcowClient))
				mailserver.POST("/mailboxes", handlers.CreateRemoteMailbox(s.MailcowClient))
				mailserver.PUT("/mailboxes", handlers.BulkUpdateRemoteMailboxes(s.MailcowClient))
				mailserver.GET("/mailboxes/:email", handlers.GetRemoteMailbox(s.MailcowClient))
				mailserver.PUT("/mailboxes/:email", handlers.UpdateRemoteMailbox(s.MailcowClient))
				mailserver.DELETE("/mailboxes/:email", handlers.DeleteRemoteMailbox(s.MailcowClient))
				mailserver.POST("/mailboxes/:email/activate", handlers.SetRemoteMailboxActive(s.MailcowClient, true))
				mailserver.POST("/mailboxes/:email/deactivate", handlers.SetRemoteMailboxActive(s.MailcowClient, false))
				mailserver.PUT("/mailboxes/:email/quota", handlers.UpdateRemoteMailboxQuota(s.MailcowClient))
				mailserver.PUT("/mailboxes/:email/password", handlers.SetRemoteMailboxPassword(s.MailcowClient))
				mailserver.GET("/mailboxes/:email/ratelimit", handlers.GetRemoteRateLimits(s.MailcowClient))
				mailserver.PUT("/mailboxes/:email/ratelimit", handlers.SetRemoteRateLimit(s.MailcowClient))

				mailserver.GET("/aliases", handlers.ListRemoteAliases(s.MailcowClient))
				mailserver.POST("/aliases", handlers.CreateRemoteAlias(s.MailcowClient))
				mailserver.PUT("/aliases/:id", handlers.UpdateRemoteAlias(s.MailcowClient))
				mailserver.DELETE("/aliases/:id", handlers.DeleteRemoteAlias(s.MailcowClient))

				mailserver.GET("/logs/:type", handlers.GetRemoteLogs(s.MailcowClient))
				mailserver.GET("/rspamd/stats", handlers.GetRemoteRspamdStats(s.MailcowClient))
				mailserver.GET("/quarantine", handlers.GetRemoteQuarantine(s.MailcowClient))
				mailserver.GET("/queue", handlers.GetRemoteMailQueue(s.MailcowClient))
			}

			// Reconciliation sweeps and the cache they feed
			adminSync := admin.Group("/sync")
			{
				adminSync.POST("/mailboxes", handlers.TriggerMailboxSync(s.SyncService))
				adminSync.POST("/mailboxes/:email", handlers.TriggerSingleMailboxSync(s.SyncService))
				adminSync.POST("/aliases", handlers.TriggerAliasSync(s.SyncService))
				adminSync.POST("/domains", handlers.TriggerDomainSync(s.SyncService))
			}

			cache := admin.Group("/cache")
			{
				cache.GET("/mailboxes", handlers.ListCachedMailboxes(repos.MailboxMetadataRepository))
				cache.GET("/mailboxes/:email", handlers.GetCachedMailbox(repos.MailboxMetadataRepository))
				cache.GET("/aliases", handlers.ListCachedAliases(repos.AliasCacheRepository))
				cache.GET("/domains", handlers.ListCachedDomains(repos.DomainCacheRepository))
			}
		}
	}
}
