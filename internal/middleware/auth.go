package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"

	// UserIDKey is the gin context key holding the authenticated user ID.
	UserIDKey = "userID"
)

// AuthMiddleware returns middleware that validates HS256 bearer tokens and
// stores the token subject as the caller's user ID. Tokens are issued elsewhere.
func AuthMiddleware(secret []byte, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	keyFunc := func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}

	return func(c *gin.Context) {
		fields := strings.Fields(c.GetHeader(authorizationHeader))
		if len(fields) != 2 || !strings.EqualFold(fields[0], bearerScheme) {
			abortUnauthorized(c, "missing or malformed bearer token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(fields[1], claims, keyFunc); err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		if claims.Subject == "" {
			abortUnauthorized(c, "token has no subject")
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// UserID returns the authenticated user ID, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": msg,
		"code":  "UNAUTHORIZED",
	})
}
