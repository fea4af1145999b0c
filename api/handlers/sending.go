package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
)

// AttemptSend is called by the mail submission path before every outbound
// message. A 200 with allowed=false is a policy denial, not an error.
func AttemptSend(rateLimiter interfaces.RateLimiterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req interfaces.SendAttemptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		if req.IPAddress == "" {
			req.IPAddress = c.ClientIP()
		}
		if req.UserAgent == "" {
			req.UserAgent = c.Request.UserAgent()
		}

		decision, err := rateLimiter.AttemptSend(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, decision)
	}
}

// GetSendingLimit returns one user's counters and caps
func GetSendingLimit(limitRepo interfaces.SendingLimitRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		limit, err := limitRepo.GetByUserID(ctx, c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, limit)
	}
}

// ListSendingLimits returns every user row for the admin dashboard
func ListSendingLimits(limitRepo interfaces.SendingLimitRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		limits, err := limitRepo.GetAll(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": limits, "total": len(limits)})
	}
}

// UpdateSendingLimits applies an admin override to a user's caps
func UpdateSendingLimits(rateLimiter interfaces.RateLimiterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var update interfaces.LimitUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		limit, err := rateLimiter.UpdateLimits(ctx, c.Param("userId"), update)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, limit)
	}
}

// SuspendSending flips the user's kill switch off
func SuspendSending(rateLimiter interfaces.RateLimiterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&body)

		if err := rateLimiter.SuspendSending(ctx, c.Param("userId"), body.Reason); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "sending suspended", "userId": c.Param("userId")})
	}
}

// ResumeSending re-enables sending for a suspended user
func ResumeSending(rateLimiter interfaces.RateLimiterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if err := rateLimiter.ResumeSending(ctx, c.Param("userId")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "sending resumed", "userId": c.Param("userId")})
	}
}

// ResetSendingCounters zeroes a user's windows ahead of their natural rollover
func ResetSendingCounters(rateLimiter interfaces.RateLimiterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if err := rateLimiter.ResetCounters(ctx, c.Param("userId")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "counters reset", "userId": c.Param("userId")})
	}
}

// SendingStats is the admin dashboard summary
func SendingStats(limitRepo interfaces.SendingLimitRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		stats, err := limitRepo.Stats(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// ListSendLogs returns a user's recent send attempts
func ListSendLogs(sendLogRepo interfaces.SendLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
		if days <= 0 {
			days = 7
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		logs, err := sendLogRepo.ListByUser(ctx, c.Param("userId"), since, limit)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": logs, "total": len(logs)})
	}
}

// ListViolations lists limit violations, optionally filtered by resolution
func ListViolations(violationRepo interfaces.ViolationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var resolved *bool
		if raw, ok := c.GetQuery("resolved"); ok {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "resolved must be true or false"})
				return
			}
			resolved = &value
		}

		violations, err := violationRepo.List(ctx, resolved)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": violations, "total": len(violations)})
	}
}

// ResolveViolation marks a violation handled
func ResolveViolation(violationRepo interfaces.ViolationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body struct {
			ResolvedBy string `json:"resolvedBy"`
			AdminNotes string `json:"adminNotes"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.ResolvedBy == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resolvedBy is required"})
			return
		}

		if err := violationRepo.Resolve(ctx, c.Param("id"), body.ResolvedBy, body.AdminNotes); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "violation resolved", "id": c.Param("id")})
	}
}
