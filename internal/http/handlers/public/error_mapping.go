package public

import (
	"errors"

	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondWithMappedErrorData 与 respondWithMappedError 相同，但附带数据（如结算会话视图）。
func respondWithMappedErrorData(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string, data interface{}) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondErrorWithData(c, rule.code, rule.key, data)
			return
		}
	}
	handlerLogError(c, fallbackCode, fallbackKey, err)
	respondErrorWithData(c, fallbackCode, fallbackKey, data)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var productErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrProductNameRequired, code: response.CodeBadRequest, key: "error.product_name_required"},
	{target: service.ErrProductPriceInvalid, code: response.CodeBadRequest, key: "error.product_price_invalid"},
	{target: service.ErrProductMediaRequired, code: response.CodeBadRequest, key: "error.product_media_required"},
	{target: service.ErrForbidden, code: response.CodeForbidden, key: "error.forbidden"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrCartFull, code: response.CodeConflict, key: "error.cart_full"},
	{target: service.ErrCartItemInvalid, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrCartTokenRequired, code: response.CodeBadRequest, key: "error.cart_token_required"},
}

var checkoutSessionErrorRules = []mappedHandlerError{
	{target: service.ErrCheckoutSessionNotFound, code: response.CodeNotFound, key: "error.checkout_not_found"},
	{target: service.ErrCheckoutInProgress, code: response.CodeConflict, key: "error.checkout_in_progress"},
	{target: service.ErrCheckoutClosed, code: response.CodeConflict, key: "error.checkout_closed"},
	{target: service.ErrCheckoutConfirmed, code: response.CodeConflict, key: "error.checkout_confirmed"},
	{target: service.ErrCourierInvalid, code: response.CodeBadRequest, key: "error.courier_invalid"},
}

var checkoutOpenExtraErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrCheckoutEmpty, code: response.CodeBadRequest, key: "error.checkout_empty"},
}

var checkoutSubmitExtraErrorRules = []mappedHandlerError{
	{target: service.ErrCheckoutInvalid, code: response.CodeBadRequest, key: "error.checkout_invalid"},
	{target: service.ErrCheckoutNotReady, code: response.CodeBadRequest, key: "error.checkout_not_ready"},
	{target: service.ErrCheckoutEmpty, code: response.CodeBadRequest, key: "error.checkout_empty"},
	{target: service.ErrInvalidOrderAmount, code: response.CodeBadRequest, key: "error.order_amount_invalid"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.order_item_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeConflict, key: "error.order_status_invalid"},
	{target: service.ErrReleaseCodeInvalid, code: response.CodeBadRequest, key: "error.release_code_invalid"},
	{target: service.ErrRiderRequired, code: response.CodeBadRequest, key: "error.rider_required"},
	{target: service.ErrFulfillmentEvent, code: response.CodeBadRequest, key: "error.fulfillment_event_invalid"},
	{target: service.ErrForbidden, code: response.CodeForbidden, key: "error.forbidden"},
}
