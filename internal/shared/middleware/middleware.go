package middleware

import (
	"net/http"
	"strings"

	"campusq/internal/shared/config"
	"campusq/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Staff roles issued by the campus identity provider. Identity is an
// external collaborator: it signs staff access tokens with the shared
// secret and this middleware only verifies and extracts claims.
const (
	RoleAdmin   = "ADMIN"
	RoleCashier = "CASHIER"
)

// JWTAuth creates a JWT authentication middleware for staff endpoints
func JWTAuth() gin.HandlerFunc {
	return JWTAuthWithConfig(config.Load())
}

// JWTAuthWithConfig creates a JWT authentication middleware with config
func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
				response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid token type", nil, nil)
				c.Abort()
				return
			}
			c.Set("staff_uid", claims["uid"])
			c.Set("staff_email", claims["email"])
			c.Set("staff_role", claims["role"])
		}

		c.Next()
	}
}

// RequireRole middleware checks if the staff member has the required role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("staff_role")
		if !exists {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "staff role not found in context", nil, nil)
			c.Abort()
			return
		}

		if role.(string) != requiredRole {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin requires the ADMIN role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

// RequireRoles middleware checks if the staff member has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("staff_role")
		if !exists {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "staff role not found in context", nil, nil)
			c.Abort()
			return
		}

		hasRole := false
		for _, required := range requiredRoles {
			if role.(string) == required {
				hasRole = true
				break
			}
		}

		if !hasRole {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// StaffUID returns the authenticated staff member's uid from context
func StaffUID(c *gin.Context) (string, bool) {
	v, exists := c.Get("staff_uid")
	if !exists {
		return "", false
	}
	uid, ok := v.(string)
	return uid, ok && uid != ""
}
