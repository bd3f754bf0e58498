package router

import (
	"strings"

	"github.com/sokosnap/internal/authz"
	handlershared "github.com/sokosnap/internal/http/handlers/shared"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

const bearerScheme = "Bearer"

// JWTAuthMiddleware JWT 鉴权中间件
// required 为 false 时未携带令牌按游客处理；携带了无效令牌一律拒绝
func JWTAuthMiddleware(authService *service.AuthService, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			if required {
				abortUnauthorized(c, "error.unauthorized")
				return
			}
			handlershared.SetIdentity(c, service.GuestIdentity())
			c.Next()
			return
		}
		if !authService.Configured() {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, bearerScheme) || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}

		claims, err := authService.ParseJWT(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		handlershared.SetIdentity(c, claims.Identity())
		c.Next()
	}
}

// RoleRBACMiddleware 按令牌角色执行 casbin 授权
func RoleRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("role_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		identity := handlershared.CurrentIdentity(c)
		if identity.IsGuest() {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceRole(identity.Role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("role_rbac_enforce_failed",
				"user_id", identity.UserID,
				"role", identity.Role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("role_rbac_permission_denied",
				"user_id", identity.UserID,
				"role", identity.Role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, handlershared.Message("error.forbidden"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, handlershared.Message(key))
	c.Abort()
}
