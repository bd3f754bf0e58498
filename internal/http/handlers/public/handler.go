package public

import "github.com/sokosnap/internal/provider"

// Handler 店铺前台接口处理器入口
// 说明：买家、游客、卖家、骑手与客服共用同一组 API，权限由路由中间件控制。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
