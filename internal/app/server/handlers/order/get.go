package order

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// Get 订单详情接口
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromOrderEntity(order))
}
