package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
)

// TriggerMailboxSync runs a full mailbox reconciliation sweep
func TriggerMailboxSync(syncService interfaces.SyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := syncService.SyncAllMailboxes(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// TriggerSingleMailboxSync refreshes one cached mailbox from the control plane
func TriggerSingleMailboxSync(syncService interfaces.SyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		metadata, err := syncService.SyncMailbox(c.Request.Context(), c.Param("email"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, metadata)
	}
}

// TriggerAliasSync runs a full alias reconciliation sweep
func TriggerAliasSync(syncService interfaces.SyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := syncService.SyncAllAliases(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// TriggerDomainSync runs a full domain reconciliation sweep
func TriggerDomainSync(syncService interfaces.SyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := syncService.SyncAllDomains(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// ListCachedMailboxes reads the local cache without touching the control plane
func ListCachedMailboxes(mailboxRepo interfaces.MailboxMetadataRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := mailboxRepo.GetAll(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
	}
}

func GetCachedMailbox(mailboxRepo interfaces.MailboxMetadataRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := mailboxRepo.GetByEmail(c.Request.Context(), c.Param("email"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

func ListCachedAliases(aliasRepo interfaces.AliasCacheRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := aliasRepo.GetAll(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
	}
}

func ListCachedDomains(domainRepo interfaces.DomainCacheRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := domainRepo.GetAll(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
	}
}
