package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

// ListTiers returns the tier catalog. Active tiers only by default; pass
// all=true to include deactivated ones.
func ListTiers(tierService interfaces.TierService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		includeAll, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
		tiers, err := tierService.ListTiers(ctx, !includeAll)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": tiers, "total": len(tiers)})
	}
}

// GetTier returns one tier by name
func GetTier(tierService interfaces.TierService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tier, err := tierService.ResolveTier(ctx, c.Param("name"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, tier)
	}
}

// SaveTier creates or updates a catalog entry. Changing a tier's caps does
// not touch users already on it; re-assign to propagate.
func SaveTier(tierService interfaces.TierService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var tier models.SendingTier
		if err := c.ShouldBindJSON(&tier); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := tierService.SaveTier(ctx, &tier); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, tier)
	}
}

// DeactivateTier retires a tier from the catalog. Users already on it keep
// their denormalized caps.
func DeactivateTier(tierService interfaces.TierService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if err := tierService.DeactivateTier(ctx, c.Param("name")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "tier deactivated", "name": c.Param("name")})
	}
}

// AssignTier moves a user onto a tier, copying its caps onto the user row
func AssignTier(tierService interfaces.TierService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body struct {
			TierName string `json:"tierName"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.TierName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tierName is required"})
			return
		}

		limit, err := tierService.AssignTier(ctx, c.Param("userId"), body.TierName)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, limit)
	}
}
