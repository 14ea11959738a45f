package tokens

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusq/internal/shared/utils/response"
)

const (
	contextKeyRaw    = "access_token_raw"
	contextKeyClaims = "access_token_claims"
)

// Auth verifies the bearer access token against the allowed chain
// stages and stores its claims in the request context. Consumption is
// left to the handler: polling reads verify without burning the token.
func Auth(svc Service, allowed ...TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		claims, err := svc.Verify(c.Request.Context(), raw, allowed...)
		if err != nil {
			status, msg := authFailure(err)
			response.RespondJSON(c, "error", status, msg, nil, nil)
			c.Abort()
			return
		}

		c.Set(contextKeyRaw, raw)
		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// RawFromContext returns the bearer token stored by Auth
func RawFromContext(c *gin.Context) string {
	raw, _ := c.Get(contextKeyRaw)
	s, _ := raw.(string)
	return s
}

// ClaimsFromContext returns the verified claims stored by Auth
func ClaimsFromContext(c *gin.Context) *Claims {
	v, _ := c.Get(contextKeyClaims)
	claims, _ := v.(*Claims)
	return claims
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// authFailure maps token verification errors to HTTP semantics
func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, ErrWrongTokenType):
		return http.StatusUnauthorized, "wrong token type"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return http.StatusUnauthorized, "token already used"
	case errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid token"
	default:
		return http.StatusInternalServerError, "token verification failed"
	}
}
