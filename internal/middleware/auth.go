package middleware

import (
	"context"
	"net/http"
	"strings"

	"restopos/internal/apierror"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims = service.AuthClaims

// SessionValidator confirms that the session behind a token is still live.
type SessionValidator interface {
	ValidarSesion(ctx context.Context, sesionID uuid.UUID) error
}

// JWTAuth validates the Bearer token on every protected route, then checks
// that its session has not been revoked or expired.
func JWTAuth(secret string, sesiones SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		claims, err := service.ParseAuthToken(raw, secret)
		if err != nil || claims.Tipo != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		sid, err := uuid.Parse(claims.SesionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		if err := sesiones.ValidarSesion(c.Request.Context(), sid); err != nil {
			if apiErr, ok := apierror.As(err); ok {
				c.AbortWithStatusJSON(apiErr.Status, apierror.New(apiErr.Message))
				return
			}
			log.Error().Err(err).
				Str("request_id", c.GetString(RequestIDKey)).
				Str("sid", claims.SesionID).
				Msg("session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on a
// websocket handshake, so upgrade requests may pass the token as ?access_token=.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("access_token")
	}
	return ""
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
