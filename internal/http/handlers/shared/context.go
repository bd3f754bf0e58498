package shared

import (
	"strings"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

// SetIdentity 将请求身份写入上下文
func SetIdentity(c *gin.Context, identity service.Identity) {
	c.Set(constants.ContextKeyUserID, identity.UserID)
	c.Set(constants.ContextKeyUserName, identity.Name)
	c.Set(constants.ContextKeyPhone, identity.Phone)
	c.Set(constants.ContextKeyRole, identity.Role)
}

// CurrentIdentity 读取请求身份；未登录时返回游客
func CurrentIdentity(c *gin.Context) service.Identity {
	userID := contextString(c, constants.ContextKeyUserID)
	if userID == "" {
		return service.GuestIdentity()
	}
	role := contextString(c, constants.ContextKeyRole)
	if role == "" {
		role = constants.RoleBuyer
	}
	return service.Identity{
		UserID: userID,
		Name:   contextString(c, constants.ContextKeyUserName),
		Phone:  contextString(c, constants.ContextKeyPhone),
		Role:   role,
	}
}

// RequireIdentity 读取登录身份，游客返回 401
func RequireIdentity(c *gin.Context) (service.Identity, bool) {
	identity := CurrentIdentity(c)
	if identity.IsGuest() {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return identity, false
	}
	return identity, true
}

// CartToken 读取游客购物车令牌
func CartToken(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(constants.CartTokenHeader))
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	value, ok := c.Get(key)
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return strings.TrimSpace(text)
}
