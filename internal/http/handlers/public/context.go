package public

import (
	handlershared "github.com/sokosnap/internal/http/handlers/shared"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

func currentIdentity(c *gin.Context) service.Identity {
	return handlershared.CurrentIdentity(c)
}

func requireIdentity(c *gin.Context) (service.Identity, bool) {
	return handlershared.RequireIdentity(c)
}

func cartOwner(c *gin.Context) service.CartOwner {
	return service.CartOwner{
		CustomerID: currentIdentity(c).CustomerID(),
		Token:      handlershared.CartToken(c),
	}
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithData(c *gin.Context, code int, key string, data any) {
	handlershared.RespondErrorWithData(c, code, key, data)
}

func handlerLogError(c *gin.Context, code int, key string, err error) {
	handlershared.LogHandlerError(c, code, key, err)
}
