package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// MailServerHealth reports whether the mailcow control plane is reachable
func MailServerHealth(mailcowClient interfaces.MailcowClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mailcowClient.IsConfigured() {
			c.JSON(http.StatusOK, gin.H{
				"configured": false,
				"healthy":    false,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"configured": true,
			"healthy":    mailcowClient.HealthCheck(c.Request.Context()),
		})
	}
}
