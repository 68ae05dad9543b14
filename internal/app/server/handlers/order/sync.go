package order

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// Sync 一键同步订单接口
// POST /api/v1/orders/sync
func (h *OrderHandler) Sync(c *gin.Context) {
	result, err := h.sync.SyncOrders(c.Request.Context())
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromSyncResult(result))
}
