package middleware

import (
	"errors"
	"net/http"
	"strings"

	"shop-api/auth"
	"shop-api/models"

	"github.com/gin-gonic/gin"
)

const contextClaimsKey = "auth_claims"

// AuthMiddleware gates a route group behind a bearer token. A missing or
// expired token is a 401; a tampered or otherwise invalid one is a 403.
func AuthMiddleware(mgr *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{
				Success: false,
				Message: "Access token is required",
			})
			return
		}

		claims, err := mgr.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{
					Success: false,
					Message: "Token has expired",
					Error:   "TOKEN_EXPIRED",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, models.APIResponse{
				Success: false,
				Message: "Invalid token",
				Error:   "INVALID_TOKEN",
			})
			return
		}

		c.Set(contextClaimsKey, claims)
		c.Next()
	}
}

// RequireRole authorizes a request only when the verified claims carry
// the given role. It must run after AuthMiddleware.
func RequireRole(roleID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{
				Success: false,
				Message: "Authentication required",
			})
			return
		}
		if claims.RoleID != roleID {
			c.AbortWithStatusJSON(http.StatusForbidden, models.APIResponse{
				Success: false,
				Message: "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the verified claims set by AuthMiddleware, or nil
// on unauthenticated routes.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(contextClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// ActorID is the authenticated user's id for audit columns, nil when the
// route is unauthenticated.
func ActorID(c *gin.Context) *int {
	claims := ClaimsFrom(c)
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}

// BearerToken extracts the token from the Authorization header, empty
// string when absent.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
