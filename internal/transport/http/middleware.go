package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"naturelog-go/internal/domain/auth"
)

// ContextUserID is the gin context key carrying the authenticated user id.
const ContextUserID = "user_id"

// AuthMiddleware validates Bearer tokens and stores the user id in the context.
func AuthMiddleware(tokens *auth.AuthToken) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			RespondError(c, http.StatusUnauthorized, "missing authorization header", nil)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			RespondError(c, http.StatusUnauthorized, "authorization header must use Bearer scheme", nil)
			c.Abort()
			return
		}

		userID, err := tokens.VerifyToken(tokenString)
		if err != nil {
			RespondError(c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}
