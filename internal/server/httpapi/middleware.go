package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/croplabs/picstore/internal/server/auth"
)

// ownerKey is the gin context key holding the authenticated owner id.
const ownerKey = "ownerId"

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		ownerID, err := auth.GetUserIDFromToken(strings.TrimSpace(token), s.secret)
		if err != nil || ownerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ownerKey, ownerID)
		c.Next()
	}
}

func owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}
