package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
)

// Admin proxy onto the mailcow control plane. These handlers translate and
// forward; the authoritative state stays remote and the sync service pulls
// it back into the cache tables.

func MailServerStatus(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := mailcowClient.GetStatus(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func ListRemoteDomains(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		domains, err := mailcowClient.GetDomains(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": domains, "total": len(domains)})
	}
}

func GetRemoteDomain(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, err := mailcowClient.GetDomain(c.Request.Context(), c.Param("domain"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, domain)
	}
}

func CreateRemoteDomain(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req interfaces.MailcowDomainCreate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Domain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "domain is required"})
			return
		}

		if err := mailcowClient.CreateDomain(c.Request.Context(), req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "domain created", "domain": req.Domain})
	}
}

func UpdateRemoteDomain(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req interfaces.MailcowDomainUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := mailcowClient.UpdateDomain(c.Request.Context(), c.Param("domain"), req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "domain updated", "domain": c.Param("domain")})
	}
}

func DeleteRemoteDomain(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mailcowClient.DeleteDomain(c.Request.Context(), c.Param("domain")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "domain deleted", "domain": c.Param("domain")})
	}
}

// ListRemoteMailboxes returns typed entries plus any the control plane sent
// malformed
func ListRemoteMailboxes(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := mailcowClient.GetMailboxes(c.Request.Context(), c.Query("domain"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetRemoteMailbox(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		mailbox, err := mailcowClient.GetMailbox(c.Request.Context(), c.Param("email"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, mailbox)
	}
}

func CreateRemoteMailbox(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req interfaces.MailcowMailboxCreate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.LocalPart == "" || req.Domain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "localPart and domain are required"})
			return
		}
		if req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
			return
		}

		if err := mailcowClient.CreateMailbox(c.Request.Context(), req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "mailbox created", "email": req.LocalPart + "@" + req.Domain})
	}
}

func UpdateRemoteMailbox(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req interfaces.MailcowMailboxUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := mailcowClient.UpdateMailbox(c.Request.Context(), c.Param("email"), req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "mailbox updated", "email": c.Param("email")})
	}
}

// BulkUpdateRemoteMailboxes applies one edit to a list of mailboxes in a
// single control-plane call
func BulkUpdateRemoteMailboxes(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Emails []string                        `json:"emails"`
			Update interfaces.MailcowMailboxUpdate `json:"update"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(body.Emails) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "emails must not be empty"})
			return
		}

		if err := mailcowClient.UpdateMailboxes(c.Request.Context(), body.Emails, body.Update); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "mailboxes updated", "count": len(body.Emails)})
	}
}

func DeleteRemoteMailbox(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mailcowClient.DeleteMailbox(c.Request.Context(), c.Param("email")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "mailbox deleted", "email": c.Param("email")})
	}
}

func SetRemoteMailboxActive(mailcowClient interfaces.MailcowClient, active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		email := c.Param("email")

		var err error
		if active {
			err = mailcowClient.ActivateMailbox(ctx, email)
		} else {
			err = mailcowClient.DeactivateMailbox(ctx, email)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "mailbox updated", "email": email, "active": active})
	}
}

func UpdateRemoteMailboxQuota(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			QuotaBytes int64 `json:"quotaBytes"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.QuotaBytes < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quotaBytes must not be negative"})
			return
		}

		if err := mailcowClient.UpdateMailboxQuota(c.Request.Context(), c.Param("email"), body.QuotaBytes); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "quota updated", "email": c.Param("email")})
	}
}

func SetRemoteMailboxPassword(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(body.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		if err := mailcowClient.SetMailboxPassword(c.Request.Context(), c.Param("email"), body.Password); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "password updated", "email": c.Param("email")})
	}
}

func ListRemoteAliases(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		aliases, err := mailcowClient.GetAliases(c.Request.Context(), c.Query("domain"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": aliases, "total": len(aliases)})
	}
}

func CreateRemoteAlias(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req interfaces.MailcowAliasCreate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Address == "" || req.Goto == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "address and goto are required"})
			return
		}

		if err := mailcowClient.CreateAlias(c.Request.Context(), req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "alias created", "address": req.Address})
	}
}

func UpdateRemoteAlias(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		aliasID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "alias id must be numeric"})
			return
		}

		var req interfaces.MailcowAliasUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := mailcowClient.UpdateAlias(c.Request.Context(), aliasID, req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "alias updated", "id": aliasID})
	}
}

func DeleteRemoteAlias(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		aliasID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "alias id must be numeric"})
			return
		}

		if err := mailcowClient.DeleteAlias(c.Request.Context(), aliasID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "alias deleted", "id": aliasID})
	}
}

func GetRemoteDKIM(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := mailcowClient.GetDKIM(c.Request.Context(), c.Param("domain"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func CreateRemoteDKIM(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Selector string `json:"selector"`
			KeySize  int    `json:"keySize"`
		}
		_ = c.ShouldBindJSON(&body)

		if err := mailcowClient.CreateDKIM(c.Request.Context(), c.Param("domain"), body.Selector, body.KeySize); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "dkim key created", "domain": c.Param("domain")})
	}
}

func DeleteRemoteDKIM(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mailcowClient.DeleteDKIM(c.Request.Context(), c.Param("domain")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "dkim key deleted", "domain": c.Param("domain")})
	}
}

func GetRemoteLogs(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, _ := strconv.Atoi(c.DefaultQuery("count", "50"))
		logs, err := mailcowClient.GetLogs(c.Request.Context(), c.Param("type"), count)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": logs, "total": len(logs)})
	}
}

func GetRemoteRspamdStats(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := mailcowClient.GetRspamdStats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": stats, "total": len(stats)})
	}
}

func GetRemoteQuarantine(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := mailcowClient.GetQuarantine(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
	}
}

func GetRemoteMailQueue(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := mailcowClient.GetMailQueue(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
	}
}

func GetRemoteRateLimits(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := mailcowClient.GetRateLimits(c.Request.Context(), c.Param("email"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func SetRemoteRateLimit(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Value int    `json:"value"`
			Frame string `json:"frame"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.Value < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value must not be negative"})
			return
		}

		if err := mailcowClient.SetRateLimit(c.Request.Context(), c.Param("email"), body.Value, body.Frame); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "rate limit updated", "email": c.Param("email")})
	}
}
