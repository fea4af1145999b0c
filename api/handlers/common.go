package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/services/mailcow"
)

// respondError maps service errors onto HTTP statuses. Unrecognized errors
// degrade to a 500 without leaking internals beyond the message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, er.ErrSendingLimitNotFound),
		errors.Is(err, er.ErrTierNotFound),
		errors.Is(err, er.ErrViolationNotFound),
		errors.Is(err, er.ErrMailboxNotFound),
		errors.Is(err, er.ErrAliasNotFound),
		errors.Is(err, er.ErrDomainNotFound),
		mailcow.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, er.ErrTierInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, er.ErrMailcowNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case mailcow.IsConnectionError(err), errors.Is(err, er.ErrConnectionTimeout):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		var apiErr *mailcow.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Kind {
			case mailcow.KindAuth:
				c.JSON(http.StatusBadGateway, gin.H{"error": "mail server rejected our credentials"})
				return
			case mailcow.KindValidation:
				c.JSON(http.StatusBadRequest, gin.H{"error": apiErr.Message})
				return
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
