package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const CtxSubjectKey = "auth_subject"

func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := verifyRequest(c, secret)
		if !ok {
			return
		}
		c.Set(CtxSubjectKey, sub)
		c.Next()
	}
}

// open until the first passcode is set
func RequireAuthOnceConfigured(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		exists, err := svc.ExistPasscode(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "passcode lookup failed"})
			return
		}
		if !exists {
			c.Next()
			return
		}
		sub, ok := verifyRequest(c, svc.Secret())
		if !ok {
			return
		}
		c.Set(CtxSubjectKey, sub)
		c.Next()
	}
}

func verifyRequest(c *gin.Context, secret []byte) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return "", false
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
		return "", false
	}

	tokenStr := strings.TrimSpace(parts[1])
	if tokenStr == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
		return "", false
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || token == nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return "", false
	}

	if claims.Subject != adminSubject {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return "", false
	}
	return claims.Subject, true
}
