package middleware

import (
	"net/http"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireCapability lets the request through when the staff role on the
// session grants c. It must run after JWTAuthMiddleware.
func RequireCapability(c identity.Capability, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx *gin.Context) {
		claims := GetJWTClaims(ctx)
		if claims == nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(ctx)))
			return
		}
		if !identity.Role(claims.Role).Can(c) {
			log.Warn("Capability denied",
				zap.String("username", claims.Username),
				zap.String("role", claims.Role),
				zap.String("capability", string(c)),
				zap.String("path", ctx.Request.URL.Path),
			)
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Acceso denegado", GetRequestID(ctx)))
			return
		}
		ctx.Next()
	}
}
