package shared

import (
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(constants.ContextKeyRequest); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// LogHandlerError 记录接口错误；5xx 记 error，其余记 warn
func LogHandlerError(c *gin.Context, code int, key string, err error) {
	if err == nil {
		return
	}
	log := RequestLog(c)
	kv := []any{"code", code, "message_key", key, "error", err}
	if c != nil {
		kv = append(kv, "route", c.FullPath())
	}
	if code >= response.CodeInternal {
		log.Errorw("handler_error", kv...)
		return
	}
	log.Warnw("handler_error", kv...)
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	LogHandlerError(c, code, key, err)
	response.Error(c, code, Message(key))
}

// RespondErrorWithData 返回带数据的错误响应（如结算会话视图）。
func RespondErrorWithData(c *gin.Context, code int, key string, data any) {
	response.ErrorWithData(c, code, Message(key), data)
}
