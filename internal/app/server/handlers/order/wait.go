package order

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// 等待发货结果推送的默认与上限时长
const (
	defaultWaitSeconds = 10
	maxWaitSeconds     = 30
)

// WaitResult 等待订单发货结果推送接口（Smart Wait）
// GET /api/v1/orders/:id/result?timeout_seconds=10
// worker 处理完后经 redis 推送结果；超时未收到推送时回退返回当前订单状态，
// 控制台发起同步/发货后调用这里，无需轮询订单列表
func (h *OrderHandler) WaitResult(c *gin.Context) {
	orderID := c.Param("id")

	waitSec, err := strconv.Atoi(c.DefaultQuery("timeout_seconds", strconv.Itoa(defaultWaitSeconds)))
	if err != nil || waitSec <= 0 {
		ginx.BadRequest(c, "invalid timeout_seconds")
		return
	}
	if waitSec > maxWaitSeconds {
		waitSec = maxWaitSeconds
	}

	payload, err := h.results.WaitFulfillResult(c.Request.Context(), orderID, time.Duration(waitSec)*time.Second)
	if err == nil && payload != "" {
		ginx.Success(c, json.RawMessage(payload))
		return
	}

	// 超时或订阅异常都回退查库，读请求不因推送通道故障而失败
	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromOrderEntity(order))
}
