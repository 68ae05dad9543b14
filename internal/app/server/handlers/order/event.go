package order

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// ApplyEvent 市场侧状态事件接口（桥接端回调）
// POST /api/v1/orders/:id/events
func (h *OrderHandler) ApplyEvent(c *gin.Context) {
	var req request.MarketplaceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	orderID := c.Param("id")
	if err := h.fulfill.OnMarketplaceEvent(c.Request.Context(), orderID, etorder.OrderStatus(req.Status)); err != nil {
		ginx.HandleError(c, err)
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromOrderEntity(order))
}
