package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laala-payout-service/internal/auth"
	"github.com/laala-payout-service/internal/config"
)

const (
	// UserIDKey is the key used to store the authenticated user ID in the context
	UserIDKey = "user_id"

	// RoleKey is the key used to store the authenticated user's role in the context
	RoleKey = "role"
)

// AuthRequired validates the bearer token and sets user ID, email, and role
// in the request context. Requests without a valid token never reach a store.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization format")
			return
		}

		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set("email", claims.Email)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the allowed roles
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(RoleKey)
		if !exists {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		role := value.(string)
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}

		response := gin.H{
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Insufficient role for this operation",
			},
		}
		if correlationID := GetCorrelationID(c); correlationID != "" {
			response["correlation_id"] = correlationID
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response)
	}
}

// GetUserID returns the authenticated user ID from context.
// Must be used after AuthRequired.
func GetUserID(c *gin.Context) uuid.UUID {
	if value, exists := c.Get(UserIDKey); exists {
		if id, ok := value.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func abortUnauthorized(c *gin.Context, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, response)
}
