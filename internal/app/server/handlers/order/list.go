package order

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rporder"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// List 订单列表接口
// GET /api/v1/orders?account_id=1&status=pending_ship&page=1&page_size=20
func (h *OrderHandler) List(c *gin.Context) {
	var req request.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	result, err := h.orders.List(c.Request.Context(), rporder.ListFilter{
		AccountID: req.AccountID,
		Status:    etorder.OrderStatus(req.Status),
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	ginx.Success(c, response.FromListResult(result))
}
