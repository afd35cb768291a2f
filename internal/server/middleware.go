package server

import (
	"fmt"
	"strings"

	identitydomain "github.com/gavelhq/gavel/internal/identity/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token and resolves the caller to a
// local user. The resolved identity is attached to the gin context and
// passed explicitly into every service call.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(s.cfg.AuthJWTSecret), nil
		})
		if err != nil || !token.Valid {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, err := identitydomain.ParseRole(claims.Role)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.identitySvc.Resolve(c.Request.Context(), claims.Subject, role)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(identityKey, identitydomain.Identity{
			UserID:  user.ID,
			Subject: user.Subject,
			Role:    user.Role,
		})
		c.Next()
	}
}

func identityFrom(c *gin.Context) (identitydomain.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return identitydomain.Identity{}, false
	}
	identity, ok := value.(identitydomain.Identity)
	return identity, ok
}
