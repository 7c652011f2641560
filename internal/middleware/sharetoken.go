package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/models"
)

// RequireShareToken resolves the :token path parameter to a still-active
// shared route and stores it in the request context under "shared_route".
// Unknown, revoked, or archived tokens are all rejected identically.
func RequireShareToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}

		var route models.Route
		err := config.DB.
			Where("share_token = ? AND public = ? AND archived = ?", token, true, false).
			First(&route).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}

		c.Set("shared_route", route)
		c.Next()
	}
}
