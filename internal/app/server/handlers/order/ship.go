package order

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// Ship 人工批量发货接口
// POST /api/v1/orders/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	var req request.ManualShipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	results, err := h.fulfill.ManualShip(c.Request.Context(), req.OrderIDs, req.Strategy)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromShipResults(results))
}
