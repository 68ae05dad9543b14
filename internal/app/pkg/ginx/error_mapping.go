package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// HandleError 业务错误到 HTTP 响应的统一映射
func HandleError(c *gin.Context, err error) {
	var ve *errorx.ValidationError
	if errors.As(err, &ve) {
		ErrorWithDetails(c, http.StatusBadRequest, "Validation failed", []ErrorDetail{
			{Path: ve.Field, Info: ve.Reason},
		})
		return
	}

	switch {
	case errors.Is(err, errorx.ErrOrderNotFound),
		errors.Is(err, errorx.ErrRuleNotFound),
		errors.Is(err, errorx.ErrGroupNotFound):
		NotFound(c, err.Error())
		return
	case errors.Is(err, errorx.ErrInsufficientInventory),
		errors.Is(err, errorx.ErrDuplicateOrder),
		errors.Is(err, errorx.ErrGroupDisabled):
		Conflict(c, err.Error())
		return
	}

	var be *errorx.BusinessError
	if errors.As(err, &be) {
		switch be.Code {
		case http.StatusNotFound:
			NotFound(c, be.Message)
		case http.StatusBadRequest:
			BadRequest(c, be.Message)
		case http.StatusConflict:
			Conflict(c, be.Message)
		default:
			InternalError(c, be.Message)
		}
		return
	}

	InternalError(c, err.Error())
}
